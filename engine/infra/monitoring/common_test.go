package monitoring

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

// attrString returns the string attribute key from set, failing when absent.
func attrString(t *testing.T, set attribute.Set, key string) string {
	t.Helper()
	value, ok := set.Value(attribute.Key(key))
	require.Truef(t, ok, "missing attribute %s in %v", key, set.Encoded(attribute.DefaultEncoder()))
	require.Equal(t, attribute.STRING, value.Type())
	return value.AsString()
}
