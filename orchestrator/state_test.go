package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	for _, s := range []State{NEW, LAUNCHING, ACTIVE, SCHEDULING, EXECUTING, DONE, FAILED, CANCELED} {
		parsed, err := ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	st, err := ParseState(" done ")
	require.NoError(t, err)
	assert.Equal(t, DONE, st)

	_, err = ParseState("UNKNOWN")
	assert.Error(t, err)
	_, err = ParseState("FINISHED")
	assert.Error(t, err)
}

func TestMasks(t *testing.T) {
	assert.True(t, CANCELED.IsFinal())
	assert.False(t, ACTIVE.IsFinal())
	assert.False(t, MaskTaskFinal.Matches(CANCELED))
	assert.Equal(t, MaskFinal, MaskForState(DONE, FAILED, CANCELED))
	assert.Equal(t, "{DONE,FAILED}", MaskTaskFinal.String())
}

func TestRankOrdersProgressions(t *testing.T) {
	pilot := []State{NEW, LAUNCHING, ACTIVE, DONE}
	task := []State{NEW, SCHEDULING, EXECUTING, FAILED}
	for i := 1; i < len(pilot); i++ {
		assert.True(t, pilot[i-1].Rank() < pilot[i].Rank())
		assert.True(t, task[i-1].Rank() < task[i].Rank())
	}
	assert.Equal(t, -1, UNKNOWN.Rank())
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal([]State{NEW, EXECUTING})
	require.NoError(t, err)
	assert.Equal(t, `["NEW","EXECUTING"]`, string(data))

	var states []State
	require.NoError(t, json.Unmarshal([]byte(`["done","CANCELED"]`), &states))
	assert.Equal(t, []State{DONE, CANCELED}, states)

	assert.Error(t, json.Unmarshal([]byte(`["BOGUS"]`), &states))
}
