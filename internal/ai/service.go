package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"procureai/internal"
)

// Extractor is the structured-extraction surface the rest of the system
// depends on. Service is the real implementation; Mock and
// SampleFallback provide the caller-selected substitution policies.
type Extractor interface {
	ParseRequest(ctx context.Context, text string) (internal.StructuredRequest, error)
	ParseProposal(ctx context.Context, body string) (internal.ProposalData, error)
	Compare(ctx context.Context, originalRequest string, entries []ComparisonEntry) (internal.Comparison, error)
}

// ComparisonEntry is the per-proposal digest handed to the comparison
// prompt; callers assemble it from stored proposals and vendor names.
type ComparisonEntry struct {
	Vendor   string                      `json:"vendor"`
	Price    float64                     `json:"price"`
	Timeline string                      `json:"timeline"`
	Warranty string                      `json:"warranty"`
	Items    []internal.ProposalLineItem `json:"items"`
	Summary  string                      `json:"summary"`
}

// Service turns free text into structured records through a completion
// provider. Stateless; every failure is reported to the caller as either
// ErrProvider or ErrMalformedOutput, never retried or substituted here.
type Service struct {
	completer Completer
	logger    *log.Logger
}

func NewService(completer Completer, logger *log.Logger) *Service {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Service{completer: completer, logger: logger}
}

func (s *Service) ParseRequest(ctx context.Context, text string) (internal.StructuredRequest, error) {
	today := time.Now().UTC().Format("2006-01-02")
	var out internal.StructuredRequest
	if err := s.generateJSON(ctx, requestPrompt(text, today), &out); err != nil {
		return internal.StructuredRequest{}, err
	}
	return out, nil
}

func (s *Service) ParseProposal(ctx context.Context, body string) (internal.ProposalData, error) {
	var out internal.ProposalData
	if err := s.generateJSON(ctx, proposalPrompt(body), &out); err != nil {
		return internal.ProposalData{}, err
	}
	return out, nil
}

func (s *Service) Compare(ctx context.Context, originalRequest string, entries []ComparisonEntry) (internal.Comparison, error) {
	digest, err := json.Marshal(entries)
	if err != nil {
		return internal.Comparison{}, err
	}
	var out internal.Comparison
	if err := s.generateJSON(ctx, comparisonPrompt(originalRequest, string(digest)), &out); err != nil {
		return internal.Comparison{}, err
	}
	return out, nil
}

func (s *Service) generateJSON(ctx context.Context, prompt string, target any) error {
	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrProvider) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}

	clean := StripFences(raw)
	if err := json.Unmarshal([]byte(clean), target); err != nil {
		s.logger.Warn().Int("response_chars", len(raw)).Err(err).Msg("model output is not valid JSON")
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// StripFences removes markdown code-fence wrapping that models add
// despite being told not to.
func StripFences(raw string) string {
	clean := strings.ReplaceAll(raw, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	return strings.TrimSpace(clean)
}
