package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"
)

type textBlockStub struct {
	Content string
}

type textOnlyBlock struct {
	Text string
}

type clientResponseStub struct {
	Content []any
}

type typedClientResponse struct {
	Content []textBlockStub
	Delta   any
}

type emptyClientResponse struct {
	Content []any
}

type stringContentResponse struct {
	Content string
}

type stringerResponse struct {
	text string
}

func (s stringerResponse) String() string {
	return s.text
}

func TestNormalize_PlainString(t *testing.T) {
	t.Run("Should return clean strings unchanged", func(t *testing.T) {
		assert.Equal(t, "already clean", Normalize("already clean"))
	})

	t.Run("Should trim surrounding whitespace", func(t *testing.T) {
		assert.Equal(t, "padded", Normalize("  padded \n"))
	})
}

func TestNormalize_Mapping(t *testing.T) {
	t.Run("Should read the content key", func(t *testing.T) {
		assert.Equal(t, "x", Normalize(map[string]any{"content": "x"}))
	})

	t.Run("Should prefer content over answer and text", func(t *testing.T) {
		resp := map[string]any{"text": "t", "answer": "a", "content": " c "}
		assert.Equal(t, "c", Normalize(resp))
	})

	t.Run("Should fall through to answer then text", func(t *testing.T) {
		assert.Equal(t, "a", Normalize(map[string]any{"answer": "a", "text": "t"}))
		assert.Equal(t, "t", Normalize(map[string]string{"text": " t "}))
	})

	t.Run("Should stringify non-string values", func(t *testing.T) {
		assert.Equal(t, "42", Normalize(map[string]any{"answer": 42}))
	})

	t.Run("Should return an empty string for a nil value", func(t *testing.T) {
		assert.Equal(t, "", Normalize(map[string]any{"content": nil}))
	})
}

func TestNormalize_ContentSequence(t *testing.T) {
	t.Run("Should read content of the first block", func(t *testing.T) {
		resp := &clientResponseStub{Content: []any{textBlockStub{Content: " y "}, textBlockStub{Content: "z"}}}
		assert.Equal(t, "y", Normalize(resp))
	})

	t.Run("Should read text when the block has no content", func(t *testing.T) {
		resp := clientResponseStub{Content: []any{&textOnlyBlock{Text: "from text"}}}
		assert.Equal(t, "from text", Normalize(resp))
	})

	t.Run("Should support typed block slices", func(t *testing.T) {
		resp := typedClientResponse{Content: []textBlockStub{{Content: "typed"}}}
		assert.Equal(t, "typed", Normalize(resp))
	})

	t.Run("Should support map blocks", func(t *testing.T) {
		resp := clientResponseStub{Content: []any{map[string]any{"text": "mapped"}}}
		assert.Equal(t, "mapped", Normalize(resp))
	})

	t.Run("Should skip empty sequences", func(t *testing.T) {
		resp := emptyClientResponse{}
		assert.Equal(t, "{[]}", Normalize(resp))
	})

	t.Run("Should ignore string content fields", func(t *testing.T) {
		resp := stringContentResponse{Content: "plain"}
		assert.Equal(t, "{plain}", Normalize(resp))
	})
}

func TestNormalize_ContentResponse(t *testing.T) {
	t.Run("Should read the first choice", func(t *testing.T) {
		resp := &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: " first "}, {Content: "second"}}}
		assert.Equal(t, "first", Normalize(resp))
	})
}

func TestNormalize_TextBlockFallback(t *testing.T) {
	t.Run("Should extract single quoted payloads", func(t *testing.T) {
		raw := stringerResponse{
			text: "ClientResponse(content=[TextBlock(content='hello world')], delta=None, stop_reason=completed)",
		}
		assert.Equal(t, "hello world", Normalize(raw))
	})

	t.Run("Should extract double quoted payloads up to the first matching quote", func(t *testing.T) {
		raw := stringerResponse{text: `ClientResponse(content=[TextBlock(content="it's fine")])`}
		assert.Equal(t, "it's fine", Normalize(raw))
	})

	t.Run("Should not unescape payloads", func(t *testing.T) {
		raw := stringerResponse{text: `TextBlock(content='line\nnext')`}
		assert.Equal(t, `line\nnext`, Normalize(raw))
	})

	t.Run("Should fall back when no closing quote exists", func(t *testing.T) {
		raw := stringerResponse{text: "  TextBlock(content='unterminated  "}
		assert.Equal(t, "TextBlock(content='unterminated", Normalize(raw))
	})

	t.Run("Should fall back when the marker is not quoted", func(t *testing.T) {
		raw := stringerResponse{text: "TextBlock(content=None)"}
		assert.Equal(t, "TextBlock(content=None)", Normalize(raw))
	})
}

func TestNormalize_FinalFallback(t *testing.T) {
	t.Run("Should stringify unknown shapes", func(t *testing.T) {
		assert.Equal(t, "42", Normalize(42))
		assert.Equal(t, "stringer answer", Normalize(stringerResponse{text: "  stringer answer "}))
	})

	t.Run("Should return empty text for nil", func(t *testing.T) {
		assert.Equal(t, "", Normalize(nil))
		var resp *clientResponseStub
		assert.Equal(t, "<nil>", Normalize(resp))
	})
}

func TestNormalizer_CustomRules(t *testing.T) {
	t.Run("Should stop at the first matching rule", func(t *testing.T) {
		calls := 0
		n := New(
			NewRule("first", func(any) (string, bool) {
				calls++
				return "first", true
			}),
			NewRule("second", func(any) (string, bool) {
				calls++
				return "second", true
			}),
		)

		assert.Equal(t, "first", n.Normalize("ignored"))
		assert.Equal(t, 1, calls)
	})

	t.Run("Should recover from panicking rules", func(t *testing.T) {
		n := New(NewRule("boom", func(any) (string, bool) {
			panic("boom")
		}))

		assert.Equal(t, "raw", n.Normalize(" raw "))
	})
}
