package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFromZapWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core)).With(zap.String("component", "schema"))

	log.Warn("duplicate attribute value", zap.String("value", "Black"))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "duplicate attribute value", entries[0].Message)
		ctx := entries[0].ContextMap()
		assert.Equal(t, "schema", ctx["component"])
		assert.Equal(t, "Black", ctx["value"])
	}
}

func TestNewZapLoggerFallsBackOnBadLevel(t *testing.T) {
	log := NewZapLogger(&ZapLoggerConfig{Encoding: "json", Level: "loud"})
	assert.NotNil(t, log)
	log.Info("still works")
}
