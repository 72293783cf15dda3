package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewZapAdapter(zap.New(core))

	l.With(map[string]interface{}{"seller_id": "s1"}).
		WithError(errors.New("boom")).
		Warn("scorer fallback", map[string]interface{}{"candidates": 3})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		e := entries[0]
		assert.Equal(t, "scorer fallback", e.Message)
		assert.Equal(t, zap.WarnLevel, e.Level)
		ctx := e.ContextMap()
		assert.Equal(t, "s1", ctx["seller_id"])
		assert.Equal(t, "boom", ctx["error"])
		assert.EqualValues(t, 3, ctx["candidates"])
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := NewNoOpLogger()
	assert.Same(t, l, OrNop(l))
	assert.NotPanics(t, func() { OrNop(nil).Info("x", nil) })
}

func TestNewStructured(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l := NewStructured("debug", format)
		assert.NotNil(t, l)
	}
}
