package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigGetters(t *testing.T) {
	cfg := map[string]any{
		"expr":    "request.quantity > 0",
		"n":       20,
		"ratio":   1,
		"weights": map[string]any{"species_match_score": 0.25, "bad": "x"},
		"ids":     []any{"a", 2.0},
	}

	assert.Equal(t, "request.quantity > 0", ConfigGet(cfg, "expr", ""))
	assert.Equal(t, "fallback", ConfigGet(cfg, "missing", "fallback"))
	assert.Equal(t, 0, ConfigGet(cfg, "expr", 0))
	assert.Equal(t, int64(20), ConfigGetInt64(cfg, "n", 0))
	assert.Equal(t, int64(7), ConfigGetInt64(nil, "n", 7))
	assert.Equal(t, 1.0, ConfigGetFloat64(cfg, "ratio", 0))
	assert.Equal(t, 0.5, ConfigGetFloat64(cfg, "missing", 0.5))
	assert.Equal(t, map[string]float64{"species_match_score": 0.25}, MapToFloat64(cfg["weights"].(map[string]any)))
	assert.Equal(t, []string{"a", "2"}, SliceAnyToString(cfg["ids"]))
}
