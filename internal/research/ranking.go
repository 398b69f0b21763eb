// ranking.go implements spec.md §4.6's one non-trivial algorithm: the
// click-through-weighted consensus ranking of URLs across multiple search
// queries.
package research

import (
	"sort"

	"github.com/gomind-research/procmind/internal/providers/search"
)

// WeightFunc is a monotonically decreasing function of 0-indexed result
// position, per spec.md §4.6/§9's Open Question: the CTR weight is a
// parameter of the aggregator, not a fixed constant.
type WeightFunc func(position int) float64

// DefaultWeight is the spec's own hinted default, w(pos) = 1/(1+pos).
func DefaultWeight(position int) float64 {
	return 1.0 / (1.0 + float64(position))
}

// DefaultConsensusThreshold is spec.md §4.6's "default 2" minimum
// distinct-query appearance count for a URL to count as consensus.
const DefaultConsensusThreshold = 2

// RankedURL is one scored, ranked entry in the aggregate result list.
type RankedURL struct {
	URL         string
	Title       string
	Score       float64
	Appearances int // total occurrences across all queries' result lists
	QueryCount  int // number of distinct queries the URL appeared in
	MinPosition int
	Consensus   bool
}

// Ranking is the full output of Rank: the consensus subset, the full
// (all) subset, and the per-query raw lists preserved verbatim per
// spec.md §4.6's closing sentence.
type Ranking struct {
	Consensus []RankedURL
	All       []RankedURL
	PerQuery  []search.QueryResult
}

type accumulator struct {
	url         string
	title       string
	score       float64
	appearances int
	queries     map[int]bool
	minPosition int
}

// Rank computes score(url) = sum_q w(position_in_q) * appearances_in_q,
// groups results into "consensus" (appeared in at least threshold distinct
// queries) and "all", each sorted by descending score with ties broken by
// minimum position then URL lexicographic order.
func Rank(queryResults []search.QueryResult, weight WeightFunc, consensusThreshold int) Ranking {
	if weight == nil {
		weight = DefaultWeight
	}
	if consensusThreshold < 1 {
		consensusThreshold = DefaultConsensusThreshold
	}

	acc := make(map[string]*accumulator)
	for qi, qr := range queryResults {
		for _, r := range qr.Results {
			a, ok := acc[r.URL]
			if !ok {
				a = &accumulator{url: r.URL, title: r.Title, queries: make(map[int]bool), minPosition: r.Position}
				acc[r.URL] = a
			}
			a.score += weight(r.Position)
			a.appearances++
			a.queries[qi] = true
			if r.Position < a.minPosition {
				a.minPosition = r.Position
			}
		}
	}

	all := make([]RankedURL, 0, len(acc))
	for _, a := range acc {
		all = append(all, RankedURL{
			URL:         a.url,
			Title:       a.title,
			Score:       a.score,
			Appearances: a.appearances,
			QueryCount:  len(a.queries),
			MinPosition: a.minPosition,
			Consensus:   len(a.queries) >= consensusThreshold,
		})
	}

	sortRanked(all)

	consensus := make([]RankedURL, 0, len(all))
	for _, r := range all {
		if r.Consensus {
			consensus = append(consensus, r)
		}
	}

	return Ranking{Consensus: consensus, All: all, PerQuery: queryResults}
}

func sortRanked(rs []RankedURL) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		if rs[i].MinPosition != rs[j].MinPosition {
			return rs[i].MinPosition < rs[j].MinPosition
		}
		return rs[i].URL < rs[j].URL
	})
}
