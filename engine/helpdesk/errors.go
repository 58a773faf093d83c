package helpdesk

import (
	"errors"
	"fmt"

	"github.com/compozy/helpdesk/engine/core"
)

var (
	ErrEmptyQuery   = fmt.Errorf("%w: query cannot be empty", core.ErrInvalidInput)
	ErrMissingQuery = fmt.Errorf("%w: missing original query", core.ErrInvalidInput)
	ErrEmptyAnswer  = errors.New("empty answer from generation model")
)

const (
	OpProcessQuery  = "processing query"
	OpGenerateEmail = "generating email"
)

// UpstreamError reports a failure of the model, embedding or vector store
// behind an operation.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by caller input.
func IsClientError(err error) bool {
	return errors.Is(err, core.ErrInvalidInput)
}
