// Package escalation drafts a formal email to the human helpdesk when the
// automated answer is not enough.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	llmadapter "github.com/compozy/helpdesk/engine/llm/adapter"
	"github.com/compozy/helpdesk/pkg/logger"
	"github.com/compozy/helpdesk/pkg/tplengine"
)

const (
	defaultGreeting = "Dear Student Services Office,"
)

var greetingPattern = regexp.MustCompile(`(?i)^(dear|hello|hi)\b`)

type Composer struct {
	client        llmadapter.LLMClient
	helpdeskEmail string
	prompts       *tplengine.TemplateEngine
}

func NewComposer(client llmadapter.LLMClient, helpdeskEmail string) (*Composer, error) {
	if client == nil {
		return nil, errors.New("escalation: llm client is required")
	}
	prompts := tplengine.NewEngine().
		WithGlobalValues(map[string]any{"greeting": defaultGreeting}).
		MustAddTemplate(emailPromptTemplate, emailPromptText)
	return &Composer{client: client, helpdeskEmail: helpdeskEmail, prompts: prompts}, nil
}

// Compose asks the model for a draft and repairs whatever it returns. Only
// transport failures are errors.
func (c *Composer) Compose(ctx context.Context, identity Identity, question, ragAnswer string) (*Draft, error) {
	prompt, err := c.prompts.Render(emailPromptTemplate, map[string]any{
		"identity": identity,
		"question": question,
		"answer":   ragAnswer,
	})
	if err != nil {
		return nil, fmt.Errorf("escalation: render prompt: %w", err)
	}
	req := llmadapter.UserPrompt(composerSystemPrompt, prompt)
	req.Options.UseJSONMode = true
	resp, err := c.client.GenerateContent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("escalation: generate draft: %w", err)
	}
	fields := ParseDraft(resp.String())
	draft := &Draft{
		To:      c.helpdeskEmail,
		Cc:      identity.Email,
		Subject: strings.TrimSpace(fields.Subject),
		Body:    normalizeBody(fields.Body),
	}
	logger.FromContext(ctx).Debug("Escalation draft composed", "subject", draft.Subject, "student_id", identity.StudentID)
	return draft, nil
}

// normalizeBody unifies line endings and guarantees a formal greeting.
func normalizeBody(body string) string {
	body = strings.TrimSpace(strings.ReplaceAll(body, "\r\n", "\n"))
	if !greetingPattern.MatchString(body) {
		body = defaultGreeting + "\n\n" + body
	}
	return body
}
