package escalation

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	DefaultSubject = "Information request"
	fence          = "```"
)

// ParseDraft extracts subject and body from model output. It never fails:
// output that is not a JSON object becomes the body, and a missing or
// non-string key takes its default.
func ParseDraft(raw string) Fields {
	text := stripFence(strings.TrimSpace(raw))
	if !gjson.Valid(text) {
		return Fields{Subject: DefaultSubject, Body: raw}
	}
	doc := gjson.Parse(text)
	if !doc.IsObject() {
		return Fields{Subject: DefaultSubject, Body: raw}
	}
	return Fields{
		Subject: stringField(doc, "subject", DefaultSubject),
		Body:    stringField(doc, "body", ""),
	}
}

func stringField(doc gjson.Result, key, fallback string) string {
	value := doc.Get(key)
	if value.Type != gjson.String {
		return fallback
	}
	return value.String()
}

// stripFence drops a leading and a trailing markdown fence line.
func stripFence(text string) string {
	if !strings.HasPrefix(text, fence) {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], fence) {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(lines[len(lines)-1], fence) {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
