package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestLoggerCapturesOutput(t *testing.T) {
	tl := NewTestLogger(t)

	tl.Info().Str("table", "diet_north").Int("rows", 42).Msg("loaded")

	require.Len(t, tl.Lines(), 1)
	assert.True(t, tl.Contains(`"table":"diet_north"`))
	assert.True(t, tl.Contains(`"rows":42`))
}

func TestContextRoundTrip(t *testing.T) {
	tl := NewTestLogger(t)

	ctx := WithLogger(context.Background(), tl.Logger)
	Ctx(ctx).Info().Msg("from context")

	assert.True(t, tl.Contains("from context"))
}

func TestContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))
	assert.Equal(t, Default(), FromContext(nil)) //nolint:staticcheck // explicit nil ctx behavior
}

func TestWithStageAddsField(t *testing.T) {
	tl := NewTestLogger(t)

	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithStage(ctx, "resolve")
	Ctx(ctx).Info().Msg("stage event")

	assert.True(t, tl.Contains(`"stage":"resolve"`))
}
