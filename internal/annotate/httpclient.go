package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clinprec/svi/internal/domain"
)

// HTTPClient implements domain.AnnotatorClient against the external
// functional-annotation service (spec §2 item 2: predictor scores, splice
// prediction, protein domains, conservation, population frequencies).
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds an HTTPClient against endpoint with the given
// request timeout.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: endpoint,
		http:    &http.Client{Timeout: timeout},
	}
}

type annotateRequest struct {
	Assembly   string `json:"assembly"`
	Chromosome string `json:"chromosome"`
	Position   int64  `json:"position"`
	Reference  string `json:"reference"`
	Alternate  string `json:"alternate"`
	Transcript string `json:"transcript_id,omitempty"`
}

type annotateResponse struct {
	PredictorScores map[string]struct {
		Score float64 `json:"score"`
		Call  string  `json:"call"`
	} `json:"predictor_scores"`
	SpliceDelta struct {
		Score float64 `json:"score"`
		Call  string  `json:"call"`
	} `json:"splice_delta"`
	ProteinDomains        []string           `json:"protein_domains"`
	Conservation          struct {
		Score float64 `json:"score"`
	} `json:"conservation"`
	PopulationFrequencies map[string]float64 `json:"population_frequencies"`
}

// Annotate queries the external annotator for v's functional predictions.
func (c *HTTPClient) Annotate(ctx context.Context, v *domain.Variant) (*domain.FunctionalAnnotation, error) {
	body, err := json.Marshal(annotateRequest{
		Assembly: v.Assembly, Chromosome: v.Chromosome, Position: v.Position,
		Reference: v.Reference, Alternate: v.Alternate, Transcript: v.TranscriptID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/annotate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("annotator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("annotator returned status %d: %s", resp.StatusCode, payload)
	}

	var parsed annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode annotate response: %w", err)
	}

	fa := &domain.FunctionalAnnotation{
		PredictorScores:       make(map[string]domain.ScoredField, len(parsed.PredictorScores)),
		SpliceDelta:           domain.ScoredField{Present: true, Score: parsed.SpliceDelta.Score, Call: parsed.SpliceDelta.Call},
		ProteinDomains:        parsed.ProteinDomains,
		Conservation:          domain.ScoredField{Present: true, Score: parsed.Conservation.Score},
		PopulationFrequencies: parsed.PopulationFrequencies,
	}
	for name, ps := range parsed.PredictorScores {
		fa.PredictorScores[name] = domain.ScoredField{Present: true, Score: ps.Score, Call: ps.Call}
	}
	return fa, nil
}
