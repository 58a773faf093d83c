package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDraft(t *testing.T) {
	t.Run("Should read subject and body from a JSON object", func(t *testing.T) {
		fields := ParseDraft(`{"subject": "Exchange deadline", "body": "Dear Office,\n\nWhen is it?"}`)

		assert.Equal(t, "Exchange deadline", fields.Subject)
		assert.Equal(t, "Dear Office,\n\nWhen is it?", fields.Body)
	})

	t.Run("Should strip markdown fences", func(t *testing.T) {
		raw := "```json\n{\"subject\": \"S\", \"body\": \"B\"}\n```"

		fields := ParseDraft(raw)

		assert.Equal(t, Fields{Subject: "S", Body: "B"}, fields)
	})

	t.Run("Should strip a bare opening fence without a closing one", func(t *testing.T) {
		fields := ParseDraft("```\n{\"subject\": \"S\", \"body\": \"B\"}")

		assert.Equal(t, Fields{Subject: "S", Body: "B"}, fields)
	})

	t.Run("Should fall back to the raw text when output is not JSON", func(t *testing.T) {
		raw := "Sorry, here is the email: Dear Office..."

		fields := ParseDraft(raw)

		assert.Equal(t, DefaultSubject, fields.Subject)
		assert.Equal(t, raw, fields.Body)
	})

	t.Run("Should fall back when the JSON is not an object", func(t *testing.T) {
		fields := ParseDraft(`["subject", "body"]`)

		assert.Equal(t, DefaultSubject, fields.Subject)
		assert.Equal(t, `["subject", "body"]`, fields.Body)
	})

	t.Run("Should default a missing subject", func(t *testing.T) {
		fields := ParseDraft(`{"body": "Dear Office"}`)

		assert.Equal(t, DefaultSubject, fields.Subject)
		assert.Equal(t, "Dear Office", fields.Body)
	})

	t.Run("Should default a missing body to empty", func(t *testing.T) {
		fields := ParseDraft(`{"subject": "Only subject"}`)

		assert.Equal(t, "Only subject", fields.Subject)
		assert.Empty(t, fields.Body)
	})

	t.Run("Should default null and non-string values", func(t *testing.T) {
		fields := ParseDraft(`{"subject": null, "body": 42}`)

		assert.Equal(t, DefaultSubject, fields.Subject)
		assert.Empty(t, fields.Body)
	})
}
