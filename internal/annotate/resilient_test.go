package annotate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinprec/svi/internal/domain"
)

type erroringClient struct{ calls int }

func (e *erroringClient) Annotate(ctx context.Context, v *domain.Variant) (*domain.FunctionalAnnotation, error) {
	e.calls++
	return nil, errors.New("upstream unavailable")
}

func TestResilientClientPassesThroughOnSuccess(t *testing.T) {
	stub := NewStubClient()
	v := &domain.Variant{Chromosome: "chr7", Position: 140753336, Reference: "A", Alternate: "T"}
	stub.Seed(v, &domain.FunctionalAnnotation{PredictorScores: map[string]domain.ScoredField{"revel": {Present: true, Score: 0.9}}})

	rc := NewResilientClient(stub, BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute}, nil, nil)

	fa, err := rc.Annotate(context.Background(), v)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if fa.PredictorScores["revel"].Score != 0.9 {
		t.Errorf("unexpected annotation: %+v", fa)
	}
}

func TestResilientClientOpensBreakerAfterRepeatedFailures(t *testing.T) {
	inner := &erroringClient{}
	rc := NewResilientClient(inner, BreakerConfig{
		MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute,
		FailureRatio: 0.5, MinRequests: 2,
	}, nil, nil)

	v := &domain.Variant{Chromosome: "chr1", Position: 100, Reference: "A", Alternate: "G"}

	for i := 0; i < 2; i++ {
		if _, err := rc.Annotate(context.Background(), v); err == nil {
			t.Fatalf("expected error on call %d", i)
		}
	}

	_, err := rc.Annotate(context.Background(), v)
	if err == nil {
		t.Fatal("expected breaker-open error on third call")
	}
	if inner.calls != 2 {
		t.Errorf("expected breaker to short-circuit the third call, inner was called %d times", inner.calls)
	}
}
