// Package pricing matches transfers against a price time series and
// converts raw token amounts into USD values.
package pricing

import (
	"errors"

	"bridge-transfer-indexer/internal/domain"
)

// ErrNoPriceData is returned when a matcher is built over an empty series.
// Nothing can be valued without samples; the run aborts before any write.
var ErrNoPriceData = errors.New("no price data available")

// Matcher selects the price sample nearest to a target timestamp by
// sweeping the series with a monotonically advancing index. One Matcher
// serves a whole batch of targets: both the series and the targets must be
// ascending, which makes the sweep a single linear pass over the series,
// O(targets + samples) instead of a search per target.
type Matcher struct {
	samples []*domain.PriceSample
	idx     int
}

// NewMatcher creates a matcher over an ascending price series.
// Returns ErrNoPriceData on an empty series.
func NewMatcher(samples []*domain.PriceSample) (*Matcher, error) {
	if len(samples) == 0 {
		return nil, ErrNoPriceData
	}
	return &Matcher{samples: samples}, nil
}

// EstimateAt returns the representative price of the sample whose timestamp
// is nearest to target. Ties prefer the earlier sample; targets beyond the
// last sample pin to it. Targets must be non-decreasing across calls or the
// sweep degrades to "last sample repeated".
func (m *Matcher) EstimateAt(target int64) float64 {
	for {
		// End of series: the last sample answers this and every later target.
		if m.idx >= len(m.samples)-1 {
			return m.samples[len(m.samples)-1].Estimate()
		}

		cur := m.samples[m.idx]
		nxt := m.samples[m.idx+1]

		if absDiff(cur.Timestamp, target) <= absDiff(nxt.Timestamp, target) {
			return cur.Estimate()
		}

		m.idx++
	}
}

// absDiff returns |a - b| for int64 timestamps.
func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
