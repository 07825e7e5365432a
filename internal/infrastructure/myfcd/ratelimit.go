package myfcd

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Rate policy kinds
const (
	PolicyFixedDelay  = "fixed-delay"
	PolicyTokenBucket = "token-bucket"
	PolicyNone        = "none"
)

// RatePolicy controls how fast the client may hit the catalog servers.
// Every request, listing or detail, waits on the limiter built from it.
type RatePolicy struct {
	Kind              string
	Delay             time.Duration // fixed-delay: minimum gap between requests
	RequestsPerSecond float64       // token-bucket: sustained rate
	Burst             int           // token-bucket: bucket size
}

// DefaultRatePolicy waits two seconds between requests, the pace the
// catalogs have historically tolerated.
func DefaultRatePolicy() RatePolicy {
	return RatePolicy{Kind: PolicyFixedDelay, Delay: 2 * time.Second}
}

// Limiter builds the rate limiter for the policy
func (p RatePolicy) Limiter() (*rate.Limiter, error) {
	switch p.Kind {
	case PolicyFixedDelay, "":
		if p.Delay <= 0 {
			return rate.NewLimiter(rate.Inf, 1), nil
		}
		return rate.NewLimiter(rate.Every(p.Delay), 1), nil
	case PolicyTokenBucket:
		if p.RequestsPerSecond <= 0 {
			return nil, fmt.Errorf("token-bucket policy needs a positive rate, got %v", p.RequestsPerSecond)
		}
		burst := p.Burst
		if burst <= 0 {
			burst = 1
		}
		return rate.NewLimiter(rate.Limit(p.RequestsPerSecond), burst), nil
	case PolicyNone:
		return rate.NewLimiter(rate.Inf, 1), nil
	}
	return nil, fmt.Errorf("unknown rate policy %q", p.Kind)
}
