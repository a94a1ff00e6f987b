package annotate

import (
	"context"

	"github.com/clinprec/svi/internal/domain"
)

// StubClient is a deterministic domain.AnnotatorClient test double: it
// returns seeded annotations keyed by variant, or a zero-value annotation
// with Present=false fields for anything unseeded.
type StubClient struct {
	responses map[string]*domain.FunctionalAnnotation
	err       error
}

// NewStubClient builds an empty StubClient.
func NewStubClient() *StubClient {
	return &StubClient{responses: make(map[string]*domain.FunctionalAnnotation)}
}

// Seed registers the annotation to return for v.
func (s *StubClient) Seed(v *domain.Variant, fa *domain.FunctionalAnnotation) {
	s.responses[v.Key().String()] = fa
}

// FailWith makes every subsequent Annotate call return err.
func (s *StubClient) FailWith(err error) { s.err = err }

func (s *StubClient) Annotate(ctx context.Context, v *domain.Variant) (*domain.FunctionalAnnotation, error) {
	if s.err != nil {
		return nil, s.err
	}
	if fa, ok := s.responses[v.Key().String()]; ok {
		return fa, nil
	}
	return &domain.FunctionalAnnotation{
		PredictorScores:       map[string]domain.ScoredField{},
		PopulationFrequencies: map[string]float64{},
	}, nil
}
