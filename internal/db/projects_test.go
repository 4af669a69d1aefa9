package db

import (
	"testing"

	"github.com/jonathan/hackathon-judge/internal/store"
	"github.com/jonathan/hackathon-judge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAnalysisUpdate(t *testing.T) {
	theme := "Health"
	qa := []types.QA{{Question: "q", Answer: "a"}}

	tests := []struct {
		name     string
		update   store.AnalysisUpdate
		wantSet  string
		wantArgs int
		wantErr  bool
	}{
		{
			name:     "market only",
			update:   store.AnalysisUpdate{Market: qa},
			wantSet:  "market_agent_analysis = $1",
			wantArgs: 1,
		},
		{
			name:     "market with theme",
			update:   store.AnalysisUpdate{Market: qa, Theme: &theme},
			wantSet:  "market_agent_analysis = $1, theme = $2",
			wantArgs: 2,
		},
		{
			name:     "theme ignored without market",
			update:   store.AnalysisUpdate{Code: qa, Theme: &theme},
			wantSet:  "code_agent_analysis = $1",
			wantArgs: 1,
		},
		{
			name:    "empty update",
			update:  store.AnalysisUpdate{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, args, err := buildAnalysisUpdate(tt.update)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, set)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestBuildAnalysisUpdate_MarshalsJSON(t *testing.T) {
	_, args, err := buildAnalysisUpdate(store.AnalysisUpdate{Code: []types.QA{{Question: "q", Answer: "a"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"question":"q","answer":"a"}]`, string(args[0].([]byte)))
}

func TestDecodeAnalysis(t *testing.T) {
	qa, err := decodeAnalysis(nil)
	require.NoError(t, err)
	assert.Nil(t, qa)

	qa, err = decodeAnalysis([]byte(`null`))
	require.NoError(t, err)
	require.NotNil(t, qa)
	assert.Empty(t, *qa)

	qa, err = decodeAnalysis([]byte(`[{"question":"q","answer":"a","failed":true}]`))
	require.NoError(t, err)
	assert.Equal(t, []types.QA{{Question: "q", Answer: "a", Failed: true}}, *qa)

	_, err = decodeAnalysis([]byte(`{`))
	assert.Error(t, err)
}

func TestDB_SatisfiesStore(t *testing.T) {
	var _ store.Store = (*DB)(nil)
}
