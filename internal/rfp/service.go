package rfp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"procureai/internal"
	"procureai/internal/ai"
	"procureai/internal/config"
	"procureai/internal/mailer"
	"procureai/internal/storage"
	"procureai/internal/util"
)

// Service holds the RFP lifecycle: create from free text, send to
// vendors, collect proposals, compare.
type Service struct {
	db        *storage.DB
	extractor ai.Extractor
	mail      *mailer.Mailer
	cfg       config.Config
	logger    *log.Logger
}

func NewService(db *storage.DB, extractor ai.Extractor, mail *mailer.Mailer, cfg config.Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Service{db: db, extractor: extractor, mail: mail, cfg: cfg, logger: logger}
}

// Create stores a new draft RFP. When parse is set the free-text request
// is run through extraction and the structured form stored alongside it.
func (s *Service) Create(ctx context.Context, title, requestText string, parse bool) (internal.RFP, error) {
	rfp := internal.RFP{
		ID:              util.NewID(),
		Title:           strings.TrimSpace(title),
		OriginalRequest: strings.TrimSpace(requestText),
		Status:          internal.StatusDraft,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if rfp.Title == "" {
		return internal.RFP{}, fmt.Errorf("title is required")
	}
	if rfp.OriginalRequest == "" {
		return internal.RFP{}, fmt.Errorf("request text is required")
	}

	if parse {
		structured, err := s.extractor.ParseRequest(ctx, util.TruncateRunes(rfp.OriginalRequest, s.cfg.AIInputMaxChars))
		if err != nil {
			return internal.RFP{}, fmt.Errorf("parse request: %w", err)
		}
		rfp.Structured = structured
	}

	if err := s.db.CreateRFP(rfp); err != nil {
		return internal.RFP{}, err
	}
	s.logger.Info().Str("rfpId", rfp.ID).Str("title", rfp.Title).Msg("rfp created")
	return rfp, nil
}

// Parse re-runs request extraction on a stored RFP and persists the
// structured form.
func (s *Service) Parse(ctx context.Context, rfpID string) (internal.RFP, error) {
	rfp, err := s.mustRFP(rfpID)
	if err != nil {
		return internal.RFP{}, err
	}

	structured, err := s.extractor.ParseRequest(ctx, util.TruncateRunes(rfp.OriginalRequest, s.cfg.AIInputMaxChars))
	if err != nil {
		return internal.RFP{}, fmt.Errorf("parse request: %w", err)
	}
	rfp.Structured = structured
	if err := s.db.UpdateRFPStructured(rfp.ID, structured); err != nil {
		return internal.RFP{}, err
	}
	return *rfp, nil
}

func (s *Service) Get(rfpID string) (internal.RFP, error) {
	rfp, err := s.mustRFP(rfpID)
	if err != nil {
		return internal.RFP{}, err
	}
	return *rfp, nil
}

func (s *Service) List() ([]internal.RFP, error) {
	return s.db.ListRFPs()
}

// SendReport lists per-vendor delivery results for one send operation.
type SendReport struct {
	SentTo []string `json:"sentTo"`
	Failed []string `json:"failed"`
}

// Send mails the RFP invitation to each vendor and records the
// successfully reached vendors in a single status transition. Partial
// delivery is reported, not rolled back.
func (s *Service) Send(ctx context.Context, rfpID string, vendorIDs []string) (SendReport, error) {
	rfp, err := s.mustRFP(rfpID)
	if err != nil {
		return SendReport{}, err
	}
	if len(vendorIDs) == 0 {
		return SendReport{}, fmt.Errorf("no vendors given")
	}

	subject := mailer.InvitationSubject(*rfp)
	report := SendReport{}
	for _, vendorID := range vendorIDs {
		vendor, err := s.db.GetVendor(vendorID)
		if err != nil {
			return report, err
		}
		if vendor == nil {
			report.Failed = append(report.Failed, vendorID)
			s.logger.Warn().Str("vendorId", vendorID).Msg("vendor not found, skipping")
			continue
		}

		text, htmlBody := mailer.InvitationBodies(*rfp, *vendor)
		if err := s.mail.Send(vendor.Email, subject, text, htmlBody); err != nil {
			report.Failed = append(report.Failed, vendorID)
			s.logger.Warn().Err(err).Str("vendorId", vendorID).Msg("invitation failed")
			continue
		}
		report.SentTo = append(report.SentTo, vendorID)
	}

	if len(report.SentTo) == 0 {
		return report, fmt.Errorf("no invitations delivered")
	}
	if err := s.db.MarkRFPSent(rfp.ID, report.SentTo); err != nil {
		return report, err
	}
	s.logger.Info().Str("rfpId", rfp.ID).Int("sent", len(report.SentTo)).Int("failed", len(report.Failed)).Msg("rfp sent")
	return report, nil
}

func (s *Service) Proposals(rfpID string) ([]internal.Proposal, error) {
	if _, err := s.mustRFP(rfpID); err != nil {
		return nil, err
	}
	return s.db.ListProposalsByRFP(rfpID)
}

// Compare runs the comparison prompt over every stored proposal for the
// RFP. At least two proposals are required for a meaningful ranking.
func (s *Service) Compare(ctx context.Context, rfpID string) (internal.Comparison, error) {
	rfp, err := s.mustRFP(rfpID)
	if err != nil {
		return internal.Comparison{}, err
	}

	proposals, err := s.db.ListProposalsByRFP(rfpID)
	if err != nil {
		return internal.Comparison{}, err
	}
	if len(proposals) < 2 {
		return internal.Comparison{}, fmt.Errorf("need at least 2 proposals, have %d", len(proposals))
	}

	entries := make([]ai.ComparisonEntry, 0, len(proposals))
	for _, p := range proposals {
		vendorName := p.VendorID
		if vendor, err := s.db.GetVendor(p.VendorID); err == nil && vendor != nil {
			vendorName = vendor.Name
		}
		entries = append(entries, ai.ComparisonEntry{
			Vendor:   vendorName,
			Price:    p.Data.TotalPrice,
			Timeline: p.Data.DeliveryTimeline,
			Warranty: p.Data.Warranty,
			Items:    p.Data.LineItems,
			Summary:  p.Data.Summary,
		})
	}

	request := rfp.OriginalRequest
	comparison, err := s.extractor.Compare(ctx, util.TruncateRunes(request, s.cfg.AIInputMaxChars), entries)
	if err != nil {
		return internal.Comparison{}, fmt.Errorf("compare proposals: %w", err)
	}
	return comparison, nil
}

// Simulate stores a proposal for the RFP without touching a mailbox.
// When body text is given it goes through real proposal extraction;
// otherwise the sample payload is used. Lets the compare and export
// paths be exercised end to end.
func (s *Service) Simulate(ctx context.Context, rfpID, vendorID, body string) (internal.Proposal, error) {
	rfp, err := s.mustRFP(rfpID)
	if err != nil {
		return internal.Proposal{}, err
	}
	vendor, err := s.db.GetVendor(vendorID)
	if err != nil {
		return internal.Proposal{}, err
	}
	if vendor == nil {
		return internal.Proposal{}, fmt.Errorf("vendor %s not found", vendorID)
	}

	body = strings.TrimSpace(body)
	data := ai.SampleProposal()
	content := "simulated reply"
	if body != "" {
		content = util.TruncateRunes(body, s.cfg.BodyStoreMaxChars)
		data, err = s.extractor.ParseProposal(ctx, util.TruncateRunes(body, s.cfg.AIInputMaxChars))
		if err != nil {
			return internal.Proposal{}, fmt.Errorf("parse simulated reply: %w", err)
		}
	}

	proposal := internal.Proposal{
		ID:           util.NewID(),
		RFPID:        rfp.ID,
		VendorID:     vendor.ID,
		EmailContent: content,
		ReceivedAt:   time.Now().UTC().Format(time.RFC3339),
		Data:         data,
	}
	if err := s.db.CreateProposal(proposal); err != nil {
		return internal.Proposal{}, err
	}
	return proposal, nil
}

func (s *Service) mustRFP(rfpID string) (*internal.RFP, error) {
	rfp, err := s.db.GetRFP(rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, fmt.Errorf("rfp %s not found", rfpID)
	}
	return rfp, nil
}
