package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitReplacesGlobal(t *testing.T) {
	require.NoError(t, Init(Config{Level: "debug", Encoding: "console", OutputPaths: []string{"stderr"}}))
	first := Get()
	require.NoError(t, Init(DefaultConfig()))
	assert.NotSame(t, first, Get())
}

func TestWithContextCarriesRunFields(t *testing.T) {
	ctx := WithRun(context.Background(), "run-1", "data.csv")
	assert.Equal(t, "run-1", ctx.Value(RunIDKey))
	assert.Equal(t, "data.csv", ctx.Value(LocationKey))
	assert.NotNil(t, WithContext(ctx))
	assert.NotNil(t, WithContext(context.Background()))
}
