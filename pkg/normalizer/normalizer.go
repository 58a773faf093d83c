// Package normalizer extracts clean answer text from generation responses whose
// shape varies across providers and client versions.
package normalizer

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Rule inspects a response and reports whether it produced the answer text.
type Rule interface {
	Name() string
	Extract(response any) (string, bool)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc struct {
	name string
	fn   func(any) (string, bool)
}

func NewRule(name string, fn func(any) (string, bool)) RuleFunc {
	return RuleFunc{name: name, fn: fn}
}

func (r RuleFunc) Name() string {
	return r.name
}

func (r RuleFunc) Extract(response any) (string, bool) {
	return r.fn(response)
}

const textBlockMarker = "TextBlock(content="

// Normalizer applies an ordered chain of rules and falls back to the
// stringified response when none of them match.
type Normalizer struct {
	rules []Rule
}

// New builds a normalizer with the given rules. With no arguments it uses
// DefaultRules.
func New(rules ...Rule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// DefaultRules returns the standard extraction chain in priority order.
func DefaultRules() []Rule {
	return []Rule{
		NewRule("string", plainString),
		NewRule("mapping", mappingField),
		NewRule("content_sequence", contentSequence),
		NewRule("content_response", contentResponse),
		NewRule("text_block", textBlock),
	}
}

var defaultNormalizer = New()

// Normalize extracts answer text from response using the default chain.
func Normalize(response any) string {
	return defaultNormalizer.Normalize(response)
}

// Normalize never fails: when no rule matches it returns the trimmed
// stringified response.
func (n *Normalizer) Normalize(response any) (out string) {
	defer func() {
		if recover() != nil {
			out = strings.TrimSpace(stringify(response))
		}
	}()
	for _, rule := range n.rules {
		if text, ok := rule.Extract(response); ok {
			return text
		}
	}
	return strings.TrimSpace(stringify(response))
}

func plainString(response any) (string, bool) {
	s, ok := response.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func mappingField(response any) (string, bool) {
	return lookupKeys(reflect.ValueOf(response), "content", "answer", "text")
}

func contentSequence(response any) (string, bool) {
	v := indirect(reflect.ValueOf(response))
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return "", false
	}
	content := indirect(v.FieldByName("Content"))
	if !content.IsValid() {
		return "", false
	}
	if content.Kind() != reflect.Slice && content.Kind() != reflect.Array {
		return "", false
	}
	if content.Len() == 0 {
		return "", false
	}
	first := indirect(content.Index(0))
	if !first.IsValid() {
		return "", false
	}
	switch first.Kind() {
	case reflect.Struct:
		for _, name := range []string{"Content", "Text"} {
			field := first.FieldByName(name)
			if field.IsValid() && field.CanInterface() {
				return strings.TrimSpace(stringify(field.Interface())), true
			}
		}
	case reflect.Map:
		return lookupKeys(first, "content", "text")
	}
	return "", false
}

func contentResponse(response any) (string, bool) {
	resp, ok := response.(*llms.ContentResponse)
	if !ok || resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", false
	}
	return strings.TrimSpace(resp.Choices[0].Content), true
}

// textBlock scans the stringified response for TextBlock(content='...') and
// returns the quoted payload up to the first matching closing quote.
func textBlock(response any) (string, bool) {
	raw := stringify(response)
	idx := strings.Index(raw, textBlockMarker)
	if idx == -1 {
		return "", false
	}
	start := idx + len(textBlockMarker)
	if start >= len(raw) {
		return "", false
	}
	quote := raw[start]
	if quote != '\'' && quote != '"' {
		return "", false
	}
	rest := raw[start+1:]
	end := strings.IndexByte(rest, quote)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func lookupKeys(v reflect.Value, keys ...string) (string, bool) {
	v = indirect(v)
	if !v.IsValid() || v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return "", false
	}
	for _, key := range keys {
		value := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !value.IsValid() {
			continue
		}
		return strings.TrimSpace(stringify(value.Interface())), true
	}
	return "", false
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
