// internal/analytics/analytics.go
//
// Daily play-count aggregation. A pure read over stored state: puzzles
// ascending by date define the day indices, guess states supply the
// distinct-player counts. Counts reflect whatever was committed at read
// time; concurrent submissions during a scan are fine.
//
// Play counts change slowly relative to read frequency, so results are
// cached in-process for a short interval.

package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/guygir/RifTrade-sub001/internal/guess"
	"github.com/guygir/RifTrade-sub001/internal/puzzle"
	"github.com/guygir/RifTrade-sub001/internal/riftle"
)

// PlayCountPoint is one day's entry in the series. Day is the 0-based
// ordinal since the first puzzle date.
type PlayCountPoint struct {
	Day   int    `json:"day"`
	Date  string `json:"date"`
	Plays int    `json:"plays"`
}

// Series is the full day-indexed play-count time series.
// With no puzzles, Points is empty and LaunchDate holds the query date
// as a placeholder.
type Series struct {
	LaunchDate string           `json:"launchDate"`
	Points     []PlayCountPoint `json:"points"`
}

type Aggregator struct {
	puzzles *puzzle.Store
	guesses *guess.Store
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	cached  *Series
	expires time.Time
}

func NewAggregator(puzzles *puzzle.Store, guesses *guess.Store, ttl time.Duration) *Aggregator {
	return &Aggregator{puzzles: puzzles, guesses: guesses, ttl: ttl, now: time.Now}
}

// SetClock overrides the aggregator clock. Tests only.
func (a *Aggregator) SetClock(now func() time.Time) { a.now = now }

// DailyPlaySeries computes the play-count series for all puzzles
// activated on or before today, serving a cached copy within the TTL.
func (a *Aggregator) DailyPlaySeries(ctx context.Context) (*Series, error) {
	now := a.now()

	a.mu.Lock()
	if a.cached != nil && now.Before(a.expires) {
		cached := a.cached
		a.mu.Unlock()
		return cached, nil
	}
	a.mu.Unlock()

	series, err := a.compute(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("play series aggregation failed")
		return nil, riftle.ErrDataSourceUnavailable
	}

	a.mu.Lock()
	a.cached = series
	a.expires = now.Add(a.ttl)
	a.mu.Unlock()
	return series, nil
}

func (a *Aggregator) compute(ctx context.Context, now time.Time) (*Series, error) {
	puzzles, err := a.puzzles.ActivatedOnOrBefore(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(puzzles) == 0 {
		return &Series{LaunchDate: puzzle.DateKey(now), Points: []PlayCountPoint{}}, nil
	}

	counts, err := a.guesses.CountDistinctPlayers(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]PlayCountPoint, 0, len(puzzles))
	for i, p := range puzzles {
		points = append(points, PlayCountPoint{
			Day:   i,
			Date:  p.Date,
			Plays: counts[p.ID],
		})
	}
	return &Series{LaunchDate: puzzles[0].Date, Points: points}, nil
}
