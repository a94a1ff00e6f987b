package domain

import (
	"testing"
	"time"
)

func TestNewPipelineError(t *testing.T) {
	key := VariantKey{Assembly: "GRCh38", Chromosome: "chr7", Position: 140753336, Reference: "A", Alternate: "T"}

	tests := []struct {
		name    string
		code    string
		phase   string
		message string
	}{
		{"annotator failure", ErrCodeAnnotatorFailure, "normalize", "annotator unreachable"},
		{"timeout", ErrCodeTimeout, "pipeline", "per-variant budget exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPipelineError(tt.code, tt.phase, key, tt.message)

			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.Phase != tt.phase {
				t.Errorf("expected phase %s, got %s", tt.phase, err.Phase)
			}
			if err.Variant != key {
				t.Errorf("expected variant %v, got %v", key, err.Variant)
			}
			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("timestamp should be recent, got %v", err.Timestamp)
			}

			expected := tt.phase + "[" + key.String() + "] " + tt.code + ": " + tt.message
			if err.Error() != expected {
				t.Errorf("expected error string %q, got %q", expected, err.Error())
			}
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("position", "must be positive", -5)

	if err.Field != "position" {
		t.Errorf("expected field position, got %s", err.Field)
	}
	expected := `validation error for field "position": must be positive`
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
