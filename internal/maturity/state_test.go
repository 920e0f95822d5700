package maturity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOrdering(t *testing.T) {
	assert.Equal(t, 0, LevelPOC.Index())
	assert.Equal(t, 1, LevelMVP.Index())
	assert.Equal(t, 2, LevelPilot.Index())
	assert.Equal(t, 3, LevelProduction.Index())
	assert.Equal(t, 4, LevelScale.Index())
	assert.Equal(t, -1, Level("BETA").Index())
}

func TestCheckpointCodeAndCategory(t *testing.T) {
	assert.Equal(t, "L1", CheckpointSecurity.Code())
	assert.Equal(t, "security", CheckpointSecurity.Category())
	assert.Equal(t, "L2", CheckpointReliability.Code())
	assert.Equal(t, "reliability", CheckpointReliability.Category())
	assert.Equal(t, "L3", CheckpointScalability.Code())
	assert.Equal(t, "scalability", CheckpointScalability.Category())
}

func TestStateString(t *testing.T) {
	s := State{Level: LevelMVP, Checkpoint: CheckpointReliability}
	assert.Equal(t, "MVP-L2", s.String())
}

func TestStateNext_WithinLevel(t *testing.T) {
	s := State{Level: LevelPOC, Checkpoint: CheckpointSecurity}
	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, State{Level: LevelPOC, Checkpoint: CheckpointReliability}, next)
}

func TestStateNext_CrossesLevel(t *testing.T) {
	s := State{Level: LevelMVP, Checkpoint: CheckpointScalability}
	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, State{Level: LevelPilot, Checkpoint: CheckpointSecurity}, next)
	assert.True(t, LevelCrossing(s, next))
}

func TestStateNext_Terminal(t *testing.T) {
	_, ok := Terminal().Next()
	assert.False(t, ok)
}

func TestIsImmediateSuccessor(t *testing.T) {
	from := State{Level: LevelPOC, Checkpoint: CheckpointSecurity}
	assert.True(t, IsImmediateSuccessor(from, State{Level: LevelPOC, Checkpoint: CheckpointReliability}))
	// Skipping a checkpoint is not a successor.
	assert.False(t, IsImmediateSuccessor(from, State{Level: LevelPOC, Checkpoint: CheckpointScalability}))
	// Skipping a level is not a successor.
	assert.False(t, IsImmediateSuccessor(from, State{Level: LevelPilot, Checkpoint: CheckpointSecurity}))
}

func TestLevelCrossing_CheckpointOnly(t *testing.T) {
	from := State{Level: LevelPilot, Checkpoint: CheckpointSecurity}
	to := State{Level: LevelPilot, Checkpoint: CheckpointReliability}
	assert.False(t, LevelCrossing(from, to))
}

func TestOrdinalTraversal(t *testing.T) {
	assert.Equal(t, 0, Initial().Ordinal())
	assert.Equal(t, 14, Terminal().Ordinal())

	// Walking Next from the initial state visits all fifteen states in order.
	s := Initial()
	for i := 0; i < 14; i++ {
		next, ok := s.Next()
		require.True(t, ok, "state %s should have a successor", s)
		assert.Equal(t, s.Ordinal()+1, next.Ordinal())
		s = next
	}
	assert.Equal(t, Terminal(), s)
}

func TestParseState(t *testing.T) {
	tests := []struct {
		raw  string
		want State
	}{
		{"POC-L1", State{LevelPOC, CheckpointSecurity}},
		{"MVP-L3", State{LevelMVP, CheckpointScalability}},
		{"pilot-l2", State{LevelPilot, CheckpointReliability}},
		{" SCALE-L3 ", State{LevelScale, CheckpointScalability}},
	}
	for _, tt := range tests {
		got, err := ParseState(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseState_Invalid(t *testing.T) {
	for _, raw := range []string{"", "MVP", "MVP-L9", "BETA-L1", "-L1", "MVP-"} {
		_, err := ParseState(raw)
		assert.ErrorIs(t, err, ErrUnknownState, raw)
	}
}

func TestCompare(t *testing.T) {
	a := State{LevelPOC, CheckpointScalability}
	b := State{LevelMVP, CheckpointSecurity}
	assert.Negative(t, Compare(a, b))
	assert.Positive(t, Compare(b, a))
	assert.Zero(t, Compare(a, a))
}
