package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/helpdesk/pkg/config"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("Should accept the default configuration", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("Should reject invalid paths", func(t *testing.T) {
		cases := map[string]string{
			"":               "cannot be empty",
			"metrics":        "must start with '/'",
			"/api/metrics":   "cannot be under /api/",
			"/metrics?debug": "cannot contain query parameters",
		}
		for path, msg := range cases {
			err := (&Config{Enabled: true, Path: path}).Validate()
			require.Error(t, err, path)
			assert.Contains(t, err.Error(), msg)
		}
	})
}

func TestFromAppConfig(t *testing.T) {
	t.Run("Should copy the application settings", func(t *testing.T) {
		cfg := FromAppConfig(config.MonitoringConfig{Enabled: true, Path: "/internal/metrics"})

		assert.True(t, cfg.Enabled)
		assert.Equal(t, "/internal/metrics", cfg.Path)
	})

	t.Run("Should keep the default path when unset", func(t *testing.T) {
		cfg := FromAppConfig(config.MonitoringConfig{Enabled: true})

		assert.Equal(t, "/metrics", cfg.Path)
	})
}
