package ratelimiter

import "time"

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

// Result carries what a caller needs to build a 429 response.
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// ResetSeconds rounds ResetIn up so clients never retry early.
func (r Result) ResetSeconds() int {
	secs := int(r.ResetIn / time.Second)
	if r.ResetIn%time.Second != 0 {
		secs++
	}
	return secs
}

type Limiter interface {
	Allow(identifier string) Result
}
