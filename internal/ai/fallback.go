package ai

import (
	"context"
	"errors"
	"time"

	"github.com/phuslu/log"

	"procureai/internal"
	"procureai/internal/util"
)

// SampleFallback substitutes fixed sample payloads when the underlying
// extractor reports a provider failure. Whether synthetic data is an
// acceptable stand-in is the operator's call, so this lives outside the
// Service and is wired in only when configured. Malformed model output
// is passed through untouched: the provider answered, the answer was bad.
type SampleFallback struct {
	next   Extractor
	logger *log.Logger
}

func NewSampleFallback(next Extractor, logger *log.Logger) *SampleFallback {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &SampleFallback{next: next, logger: logger}
}

func (f *SampleFallback) ParseRequest(ctx context.Context, text string) (internal.StructuredRequest, error) {
	out, err := f.next.ParseRequest(ctx, text)
	if errors.Is(err, ErrProvider) {
		f.logger.Warn().Err(err).Msg("provider failed, substituting sample request data")
		return SampleRequest(), nil
	}
	return out, err
}

func (f *SampleFallback) ParseProposal(ctx context.Context, body string) (internal.ProposalData, error) {
	out, err := f.next.ParseProposal(ctx, body)
	if errors.Is(err, ErrProvider) {
		f.logger.Warn().Err(err).Msg("provider failed, substituting sample proposal data")
		return SampleProposal(), nil
	}
	return out, err
}

func (f *SampleFallback) Compare(ctx context.Context, originalRequest string, entries []ComparisonEntry) (internal.Comparison, error) {
	out, err := f.next.Compare(ctx, originalRequest, entries)
	if errors.Is(err, ErrProvider) {
		f.logger.Warn().Err(err).Msg("provider failed, substituting sample comparison")
		return SampleComparison(), nil
	}
	return out, err
}

// Mock never calls a provider; every operation returns sample data.
// Used for demos and local development without an API key.
type Mock struct{}

func (Mock) ParseRequest(ctx context.Context, text string) (internal.StructuredRequest, error) {
	return SampleRequest(), nil
}

func (Mock) ParseProposal(ctx context.Context, body string) (internal.ProposalData, error) {
	return SampleProposal(), nil
}

func (Mock) Compare(ctx context.Context, originalRequest string, entries []ComparisonEntry) (internal.Comparison, error) {
	return SampleComparison(), nil
}

func SampleRequest() internal.StructuredRequest {
	deadline := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	return internal.StructuredRequest{
		Budget:   util.FloatPtr(50000),
		Currency: "USD",
		Deadline: util.StringPtr(deadline),
		Items: []internal.RFPItem{
			{Name: "High-Performance Laptop", Quantity: 50, Specs: "32GB RAM, 1TB SSD"},
			{Name: "4k Monitor", Quantity: 50, Specs: "27-inch, 60Hz"},
		},
		Requirements: []string{"Delivery within 30 days", "Warranty required"},
	}
}

func SampleProposal() internal.ProposalData {
	return internal.ProposalData{
		TotalPrice:       48500,
		DeliveryTimeline: "2 Weeks",
		LineItems: []internal.ProposalLineItem{
			{Name: "Laptop", Price: 900, Notes: "Bulk discount applied"},
			{Name: "Monitor", Price: 350, Notes: ""},
		},
		Warranty: "1 Year Standard",
		Score:    85,
		Summary:  "Vendor offers a competitive price with fast delivery.",
		Analysis: "Pros: Under budget, fast delivery. Cons: Standard warranty only.",
	}
}

func SampleComparison() internal.Comparison {
	return internal.Comparison{
		Recommendation:     "TechCorp Solutions",
		Reasoning:          "This vendor offers the best balance of price ($48,500) and delivery speed (2 weeks), meeting all core requirements.",
		KeyDifferentiators: []string{"Lowest Price", "Fastest Delivery"},
		Rankings: []internal.ComparisonRanking{
			{Vendor: "TechCorp Solutions", Rank: 1, Pros: "Price, Speed", Cons: "Warranty"},
			{Vendor: "Global Gadgets", Rank: 2, Pros: "Warranty", Cons: "Price"},
		},
	}
}
