package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRuntimeHappyPath(t *testing.T) {
	var entered []SessionPhase
	r := NewSessionRuntime("s1", func(_, to SessionPhase) { entered = append(entered, to) })
	ctx := context.Background()

	assert.Equal(t, IDLE, r.Phase())
	for _, ev := range []SessionEvent{START, SEGMENT, REPLY, FINISH} {
		require.NoError(t, r.Fire(ctx, ev), ev)
	}

	assert.Equal(t, LISTENING, r.Phase())
	assert.Equal(t, []SessionPhase{LISTENING, PROCESSING, SPEAKING, LISTENING}, entered)
}

func TestSessionRuntimeRejectsOutOfOrder(t *testing.T) {
	r := NewSessionRuntime("s1", nil)
	ctx := context.Background()

	assert.Error(t, r.Fire(ctx, SEGMENT))
	assert.Error(t, r.Fire(ctx, REPLY))
	assert.Equal(t, IDLE, r.Phase())

	require.NoError(t, r.Fire(ctx, START))
	assert.Error(t, r.Fire(ctx, START), "start is only valid from idle")
	assert.Error(t, r.Fire(ctx, INTERRUPT), "interrupt is only valid while speaking")
}

func TestSessionRuntimeStopFromAnywhere(t *testing.T) {
	ctx := context.Background()
	paths := map[string][]SessionEvent{
		"idle":       nil,
		"listening":  {START},
		"processing": {START, SEGMENT},
		"speaking":   {START, SEGMENT, REPLY},
	}
	for name, path := range paths {
		t.Run(name, func(t *testing.T) {
			r := NewSessionRuntime("s", nil)
			for _, ev := range path {
				require.NoError(t, r.Fire(ctx, ev))
			}
			require.NoError(t, r.Fire(ctx, STOP))
			assert.Equal(t, IDLE, r.Phase())
		})
	}
}

func TestSessionRuntimeAbortAndInterrupt(t *testing.T) {
	ctx := context.Background()
	r := NewSessionRuntime("s", nil)

	require.NoError(t, r.Fire(ctx, START))
	require.NoError(t, r.Fire(ctx, SEGMENT))
	require.NoError(t, r.Fire(ctx, ABORT))
	assert.Equal(t, LISTENING, r.Phase())

	require.NoError(t, r.Fire(ctx, SEGMENT))
	require.NoError(t, r.Fire(ctx, REPLY))
	assert.True(t, r.Can(INTERRUPT))
	require.NoError(t, r.Fire(ctx, INTERRUPT))
	assert.Equal(t, LISTENING, r.Phase())

	require.NoError(t, r.Fire(ctx, CLOSE))
	assert.Equal(t, CLOSED, r.Phase())
	assert.Error(t, r.Fire(ctx, START))
}
