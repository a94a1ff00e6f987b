package annotate

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/clinprec/svi/internal/domain"
)

// BreakerConfig tunes the gobreaker.CircuitBreaker guarding the annotator.
type BreakerConfig struct {
	MaxRequests   uint32
	Interval      time.Duration
	Timeout       time.Duration
	FailureRatio  float64
	MinRequests   uint32
}

// ResilientClient wraps an inner domain.AnnotatorClient with a circuit
// breaker and an optional cache: cache-first, then breaker-guarded call,
// retrying the cache lookup once if the breaker is open. Entries past their
// TTL are never served (spec §7: annotator failures degrade a variant's evidence rather than
// failing the whole run).
type ResilientClient struct {
	inner   domain.AnnotatorClient
	breaker *gobreaker.CircuitBreaker
	cache   *Cache
	log     *logrus.Logger
}

// NewResilientClient builds a ResilientClient. cache may be nil to disable
// caching entirely.
func NewResilientClient(inner domain.AnnotatorClient, cfg BreakerConfig, cache *Cache, log *logrus.Logger) *ResilientClient {
	minReq := cfg.MinRequests
	if minReq == 0 {
		minReq = 3
	}
	ratio := cfg.FailureRatio
	if ratio == 0 {
		ratio = 0.6
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "annotator",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minReq {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.WithFields(logrus.Fields{"breaker": name, "from": from, "to": to}).Warn("annotator circuit breaker state change")
			}
		},
	})

	return &ResilientClient{inner: inner, breaker: breaker, cache: cache, log: log}
}

// Annotate implements domain.AnnotatorClient.
func (r *ResilientClient) Annotate(ctx context.Context, v *domain.Variant) (*domain.FunctionalAnnotation, error) {
	if r.cache != nil {
		if fa, found, err := r.cache.Get(ctx, v); err == nil && found {
			return fa, nil
		}
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.inner.Annotate(ctx, v)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			if r.cache != nil {
				if fa, found, cacheErr := r.cache.Get(ctx, v); cacheErr == nil && found {
					if r.log != nil {
						r.log.WithField("variant", v.Key().String()).Warn("annotator circuit open, serving cached annotation")
					}
					return fa, nil
				}
			}
			return nil, fmt.Errorf("annotator unavailable: circuit open")
		}
		return nil, fmt.Errorf("annotator call failed: %w", err)
	}

	fa := result.(*domain.FunctionalAnnotation)
	if r.cache != nil {
		if cacheErr := r.cache.Set(ctx, v, fa); cacheErr != nil && r.log != nil {
			r.log.WithError(cacheErr).Warn("failed to cache annotation result")
		}
	}
	return fa, nil
}
