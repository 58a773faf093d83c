package answer

import "github.com/compozy/helpdesk/pkg/tplengine"

const (
	rewriteSystemPrompt = "Rewrite the user's query to maximize retrieval accuracy while preserving its meaning. " +
		"Clarify intent, expand important keywords, and avoid adding new assumptions."

	groundedPromptTemplate = "grounded_prompt"
)

// The grounded prompt is the user question followed by every retrieved chunk,
// one per line, in retrieval order.
const groundedPromptText = "User question: {{ .query }}\n:\n" +
	"Retrieved content:\n{{ range .chunks }}{{ . }}\n{{ end }}"

func newPromptEngine() *tplengine.TemplateEngine {
	return tplengine.NewEngine().MustAddTemplate(groundedPromptTemplate, groundedPromptText)
}
