package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Mode selects how command results and errors are rendered.
type Mode string

const (
	ModeJSON Mode = "json"
	ModeTUI  Mode = "tui"
)

// CliError represents a CLI-specific error with enhanced context
type CliError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCliError creates a new CLI error with context
func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WithContext adds context to the error
func (e *CliError) WithContext(key string, value any) *CliError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsNetworkError checks if an error is a network-related error
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	networkKeywords := []string{
		"connection refused", "connection reset", "connection timeout",
		"no route to host", "network unreachable", "no such host",
	}
	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// DetectMode reads the --json flag, defaulting to the styled output.
func DetectMode(cmd *cobra.Command) Mode {
	if cmd == nil {
		return ModeTUI
	}
	if f := cmd.Flag("json"); f != nil && f.Value.String() == "true" {
		return ModeJSON
	}
	return ModeTUI
}

// FormatError formats errors based on output mode
func FormatError(err error, mode Mode) string {
	if err == nil {
		return ""
	}
	if mode == ModeJSON {
		return formatErrorJSON(err)
	}
	return formatErrorTUI(err)
}

func formatErrorJSON(err error) string {
	payload := map[string]any{"error": err.Error()}
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		payload = map[string]any{"error": cliErr.Message, "code": cliErr.Code}
		if cliErr.Details != "" {
			payload["details"] = cliErr.Details
		}
	}
	out, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return `{"error": "JSON marshaling failed"}`
	}
	return string(out)
}

func formatErrorTUI(err error) string {
	message, details := err.Error(), ""
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		message, details = cliErr.Message, cliErr.Details
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	result := style.Render(message)
	if details != "" {
		detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
		result += "\n" + detailStyle.Render("Details: "+details)
	}
	return result
}

// OutputError writes err to w in the appropriate format
func OutputError(w io.Writer, err error, mode Mode) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err, mode))
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// Pluralize returns singular or plural form based on count
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// FormatDuration formats a duration for display
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
