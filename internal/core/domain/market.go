package domain

import (
	"fmt"
	"time"
)

// Market data sources.
const (
	SourceFRED  = "fred"
	SourceYahoo = "yahoo"
	SourceEDGAR = "edgar"
)

// Observation is a single dated value of an economic series.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is a time series of observations from one source.
type Series struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	Title        string        `json:"title,omitempty"`
	Observations []Observation `json:"observations"`
}

// Values returns the observation values in date order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Value
	}
	return out
}

// PriceBar is one daily OHLCV bar.
type PriceBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// SimpleReturns converts adjusted closes into period-over-period returns.
// The result has one element fewer than bars.
func SimpleReturns(bars []PriceBar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].AdjClose
		if prev == 0 {
			continue
		}
		out = append(out, bars[i].AdjClose/prev-1)
	}
	return out
}

// DateRange bounds a market data query. A zero End means "today".
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Key renders the range for use in cache keys.
func (r DateRange) Key() string {
	return fmt.Sprintf("%s:%s", formatDate(r.Start), formatDate(r.End))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// CacheKey builds the cache key for a source, identifier and range.
func CacheKey(source, id string, r DateRange) string {
	return source + ":" + id + ":" + r.Key()
}

// CacheEntry is a stored cache value with its expiry.
type CacheEntry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its expiry at the given time.
// Entries with a zero ExpiresAt never expire.
func (e *CacheEntry) Expired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(e.ExpiresAt)
}

// CacheStats summarises cache contents.
type CacheStats struct {
	Entries int
	Expired int
	Bytes   int64
}
