package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIProvider_Load(t *testing.T) {
	t.Run("Should drop nil overrides", func(t *testing.T) {
		source := NewCLIProvider(map[string]any{
			"qdrant.collection": "faq",
			"openai.provider":   nil,
		})

		data, err := source.Load()

		require.NoError(t, err)
		assert.Equal(t, map[string]any{"qdrant.collection": "faq"}, data)
		assert.Equal(t, SourceCLI, source.Type())
	})
}

func TestYAMLProvider_Load(t *testing.T) {
	t.Run("Should return nothing for an empty path", func(t *testing.T) {
		data, err := NewYAMLProvider("").Load()

		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("Should fail on malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "helpdesk.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

		_, err := NewYAMLProvider(path).Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML file")
	})

	t.Run("Should report its source type", func(t *testing.T) {
		assert.Equal(t, SourceYAML, NewYAMLProvider("helpdesk.yaml").Type())
	})
}

func TestFilterNilValues(t *testing.T) {
	t.Run("Should remove nil leaves and empty sections", func(t *testing.T) {
		in := map[string]any{
			"server":  map[string]any{"host": "localhost", "port": nil},
			"qdrant":  map[string]any{"api_key": nil},
			"ingest":  nil,
			"runtime": map[string]any{"log_level": "debug"},
		}

		out := filterNilValues(in)

		assert.Equal(t, map[string]any{
			"server":  map[string]any{"host": "localhost"},
			"runtime": map[string]any{"log_level": "debug"},
		}, out)
	})
}

func TestFlattenMap(t *testing.T) {
	t.Run("Should flatten nested sections into dot paths", func(t *testing.T) {
		out := flattenMap("", map[string]any{
			"server":          map[string]any{"cors": map[string]any{"enabled": false}},
			"retrieval.top_k": 2,
		})

		assert.Equal(t, map[string]any{
			"server.cors.enabled": false,
			"retrieval.top_k":     2,
		}, out)
	})
}

func TestTransformEnvKey(t *testing.T) {
	t.Run("Should map the first segment to the section", func(t *testing.T) {
		assert.Equal(t, "retrieval.top_k", transformEnvKey("RETRIEVAL_TOP_K"))
		assert.Equal(t, "server", transformEnvKey("SERVER"))
		assert.Empty(t, transformEnvKey(""))
	})
}
