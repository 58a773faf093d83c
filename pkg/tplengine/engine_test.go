package tplengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEngine_Render(t *testing.T) {
	t.Run("Should render named templates with sprig functions", func(t *testing.T) {
		engine := NewEngine()
		require.NoError(t, engine.AddTemplate("greet", "Hello {{ .name | upper }}{{ range .items }}\n- {{ . }}{{ end }}"))

		out, err := engine.Render("greet", map[string]any{"name": "ada", "items": []string{"a", "b"}})

		require.NoError(t, err)
		assert.Equal(t, "Hello ADA\n- a\n- b", out)
	})

	t.Run("Should fail on missing keys", func(t *testing.T) {
		engine := NewEngine().MustAddTemplate("strict", "{{ .missing }}")

		_, err := engine.Render("strict", map[string]any{})

		require.Error(t, err)
	})

	t.Run("Should fail on unknown template", func(t *testing.T) {
		_, err := NewEngine().Render("nope", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "template not found")
	})

	t.Run("Should let render context override global values", func(t *testing.T) {
		engine := NewEngine().
			WithGlobalValues(map[string]any{"office": "Student Services", "name": "global"}).
			MustAddTemplate("t", "{{ .office }}/{{ .name }}")

		out, err := engine.Render("t", map[string]any{"name": "local"})

		require.NoError(t, err)
		assert.Equal(t, "Student Services/local", out)
	})
}

func TestTemplateEngine_RenderString(t *testing.T) {
	t.Run("Should return plain strings untouched", func(t *testing.T) {
		out, err := NewEngine().RenderString("no markers here", nil)

		require.NoError(t, err)
		assert.Equal(t, "no markers here", out)
	})

	t.Run("Should render inline templates", func(t *testing.T) {
		out, err := NewEngine().RenderString(`{{ .q | trim }}`, map[string]any{"q": "  hi  "})

		require.NoError(t, err)
		assert.Equal(t, "hi", out)
	})
}
