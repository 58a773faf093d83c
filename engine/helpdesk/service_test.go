package helpdesk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/helpdesk/engine/core"
	"github.com/compozy/helpdesk/engine/escalation"
	llmadapter "github.com/compozy/helpdesk/engine/llm/adapter"
)

type stubAnswerer struct {
	calls int
	resp  *llmadapter.LLMResponse
	err   error
}

func (s *stubAnswerer) Answer(context.Context, string) (*llmadapter.LLMResponse, error) {
	s.calls++
	return s.resp, s.err
}

type stubComposer struct {
	calls    int
	identity escalation.Identity
	question string
	answer   string
	draft    *escalation.Draft
	err      error
}

func (s *stubComposer) Compose(
	_ context.Context,
	identity escalation.Identity,
	question, ragAnswer string,
) (*escalation.Draft, error) {
	s.calls++
	s.identity = identity
	s.question = question
	s.answer = ragAnswer
	return s.draft, s.err
}

func TestService_Ask(t *testing.T) {
	t.Run("Should return the normalized answer", func(t *testing.T) {
		answerer := &stubAnswerer{resp: &llmadapter.LLMResponse{Content: "  The office opens at 9.  \n"}}
		svc, err := NewService(answerer, &stubComposer{})
		require.NoError(t, err)

		answer, err := svc.Ask(context.Background(), "When does the office open?")

		require.NoError(t, err)
		assert.Equal(t, "The office opens at 9.", answer)
	})

	t.Run("Should unwrap client response text blocks", func(t *testing.T) {
		content := "ClientResponse(content=[TextBlock(content='hello world')], delta=None, stop_reason=completed)"
		svc, err := NewService(&stubAnswerer{resp: &llmadapter.LLMResponse{Content: content}}, &stubComposer{})
		require.NoError(t, err)

		answer, err := svc.Ask(context.Background(), "q")

		require.NoError(t, err)
		assert.Equal(t, "hello world", answer)
	})

	t.Run("Should reject blank queries without calling the answerer", func(t *testing.T) {
		answerer := &stubAnswerer{}
		svc, err := NewService(answerer, &stubComposer{})
		require.NoError(t, err)

		_, err = svc.Ask(context.Background(), " \t\n")

		require.ErrorIs(t, err, ErrEmptyQuery)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		assert.True(t, IsClientError(err))
		assert.Zero(t, answerer.calls)
	})

	t.Run("Should wrap answerer failures as upstream errors", func(t *testing.T) {
		boom := errors.New("answer: generate: timeout")
		svc, err := NewService(&stubAnswerer{err: boom}, &stubComposer{})
		require.NoError(t, err)

		_, err = svc.Ask(context.Background(), "q")

		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, OpProcessQuery, upstream.Op)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "processing query: answer: generate: timeout", err.Error())
		assert.False(t, IsClientError(err))
	})

	t.Run("Should surface an empty generation as an upstream error", func(t *testing.T) {
		for _, content := range []string{"", "   \n\t", "ClientResponse(content=[TextBlock(content='  ')])"} {
			svc, err := NewService(&stubAnswerer{resp: &llmadapter.LLMResponse{Content: content}}, &stubComposer{})
			require.NoError(t, err)

			answer, err := svc.Ask(context.Background(), "valid question")

			var upstream *UpstreamError
			require.ErrorAs(t, err, &upstream, "content %q", content)
			assert.Equal(t, OpProcessQuery, upstream.Op)
			assert.ErrorIs(t, err, ErrEmptyAnswer)
			assert.False(t, IsClientError(err))
			assert.Empty(t, answer)
		}
	})
}

func TestService_Escalate(t *testing.T) {
	identity := escalation.Identity{FirstName: "Mario", LastName: "Rossi", StudentID: "123456", Email: "m@example.edu"}

	t.Run("Should pass the request through to the composer", func(t *testing.T) {
		draft := &escalation.Draft{To: "helpdesk@example.edu", Cc: "m@example.edu", Subject: "s", Body: "Dear Office"}
		composer := &stubComposer{draft: draft}
		svc, err := NewService(&stubAnswerer{}, composer)
		require.NoError(t, err)

		got, err := svc.Escalate(context.Background(), EscalationRequest{
			Query:     "How do I enrol?",
			RAGAnswer: "Use the portal.",
			Identity:  identity,
		})

		require.NoError(t, err)
		assert.Same(t, draft, got)
		assert.Equal(t, identity, composer.identity)
		assert.Equal(t, "How do I enrol?", composer.question)
		assert.Equal(t, "Use the portal.", composer.answer)
	})

	t.Run("Should reject a missing query without invoking the composer", func(t *testing.T) {
		composer := &stubComposer{}
		svc, err := NewService(&stubAnswerer{}, composer)
		require.NoError(t, err)

		_, err = svc.Escalate(context.Background(), EscalationRequest{Identity: identity})

		require.ErrorIs(t, err, ErrMissingQuery)
		assert.Zero(t, composer.calls)
	})

	t.Run("Should wrap composer failures as upstream errors", func(t *testing.T) {
		svc, err := NewService(&stubAnswerer{}, &stubComposer{err: errors.New("quota exceeded")})
		require.NoError(t, err)

		_, err = svc.Escalate(context.Background(), EscalationRequest{Query: "q"})

		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, OpGenerateEmail, upstream.Op)
		assert.EqualError(t, err, "generating email: quota exceeded")
	})
}

func TestNewService(t *testing.T) {
	t.Run("Should require both collaborators", func(t *testing.T) {
		_, err := NewService(nil, &stubComposer{})
		require.Error(t, err)
		_, err = NewService(&stubAnswerer{}, nil)
		require.Error(t, err)
	})
}
