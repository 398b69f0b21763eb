package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomind-research/procmind/internal/providers/search"
)

func TestRank_ConsensusRequiresMultipleQueries(t *testing.T) {
	queries := []search.QueryResult{
		{Query: "a", Results: []search.Result{{URL: "http://x.com", Position: 0}, {URL: "http://y.com", Position: 1}}},
		{Query: "b", Results: []search.Result{{URL: "http://x.com", Position: 0}}},
	}
	ranking := Rank(queries, DefaultWeight, DefaultConsensusThreshold)

	require.Len(t, ranking.Consensus, 1)
	assert.Equal(t, "http://x.com", ranking.Consensus[0].URL)
	assert.Len(t, ranking.All, 2)
}

func TestRank_HigherPositionWinsHigherScore(t *testing.T) {
	queries := []search.QueryResult{
		{Query: "a", Results: []search.Result{{URL: "http://top.com", Position: 0}, {URL: "http://bottom.com", Position: 5}}},
	}
	ranking := Rank(queries, DefaultWeight, 1)
	require.Len(t, ranking.All, 2)
	assert.Equal(t, "http://top.com", ranking.All[0].URL)
}

func TestRank_TieBreaksByPositionThenLexicographic(t *testing.T) {
	queries := []search.QueryResult{
		{Query: "a", Results: []search.Result{{URL: "http://b.com", Position: 0}, {URL: "http://a.com", Position: 0}}},
	}
	ranking := Rank(queries, DefaultWeight, 1)
	require.Len(t, ranking.All, 2)
	assert.Equal(t, "http://a.com", ranking.All[0].URL)
}

func TestRank_PerQueryPreservedVerbatim(t *testing.T) {
	queries := []search.QueryResult{{Query: "a", Results: []search.Result{{URL: "http://x.com"}}}}
	ranking := Rank(queries, DefaultWeight, 1)
	assert.Equal(t, queries, ranking.PerQuery)
}

func TestRank_EmptyInput(t *testing.T) {
	ranking := Rank(nil, DefaultWeight, 1)
	assert.Empty(t, ranking.All)
	assert.Empty(t, ranking.Consensus)
}
