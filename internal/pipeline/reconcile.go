package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"procureai/internal"
	"procureai/internal/ai"
	"procureai/internal/config"
	"procureai/internal/connectors"
	"procureai/internal/storage"
	"procureai/internal/util"
)

// Reconciler turns unread vendor mail into proposal rows. A cycle fetches
// the unseen messages once, attributes each one to an RFP and vendor via
// the subject token and sender address, runs proposal extraction, and
// records the outcome in the message ledger so a redelivered message can
// never produce a second proposal.
type Reconciler struct {
	connector connectors.MailConnector
	db        *storage.DB
	extractor ai.Extractor
	cfg       config.Config
	logger    *log.Logger
}

func NewReconciler(connector connectors.MailConnector, db *storage.DB, extractor ai.Extractor, cfg config.Config, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Reconciler{connector: connector, db: db, extractor: extractor, cfg: cfg, logger: logger}
}

// MessageReport is the per-message diagnostic for one cycle.
type MessageReport struct {
	MessageID string                  `json:"messageId"`
	Subject   string                  `json:"subject"`
	From      string                  `json:"from"`
	Outcome   internal.MessageOutcome `json:"outcome"`
	RFPID     string                  `json:"rfpId,omitempty"`
	VendorID  string                  `json:"vendorId,omitempty"`
	Detail    string                  `json:"detail,omitempty"`
}

// Result summarizes one reconciliation cycle.
type Result struct {
	TotalFound int             `json:"totalFound"`
	Processed  int             `json:"processed"`
	Reports    []MessageReport `json:"reports"`
}

// RunCycle fetches unseen mail and reconciles every message. It returns
// an error only when the mailbox itself cannot be read; per-message
// failures are reported as outcomes and never abort the cycle.
func (r *Reconciler) RunCycle(ctx context.Context) (Result, error) {
	messages, err := r.connector.FetchInbox(r.cfg.InboxLabel, r.cfg.InboxFetchMax)
	if err != nil {
		return Result{}, fmt.Errorf("fetch inbox: %w", err)
	}

	result := Result{TotalFound: len(messages), Reports: make([]MessageReport, 0, len(messages))}
	for _, msg := range messages {
		report := r.reconcileMessage(ctx, msg)
		if report.Outcome == internal.OutcomeProcessed {
			result.Processed++
		}
		r.logger.Info().
			Str("messageId", report.MessageID).
			Str("outcome", string(report.Outcome)).
			Str("rfpId", report.RFPID).
			Msg("inbox message reconciled")
		result.Reports = append(result.Reports, report)
	}
	return result, nil
}

func (r *Reconciler) reconcileMessage(ctx context.Context, msg internal.FetchedMailMessage) MessageReport {
	report := MessageReport{MessageID: msg.MessageID, Subject: msg.Subject, From: msg.From}

	handled, err := r.db.HasInboxMessage(msg.Provider, msg.MessageID)
	if err != nil {
		report.Outcome = internal.OutcomeParseFailed
		report.Detail = err.Error()
		return report
	}
	if handled {
		report.Outcome = internal.OutcomeAlreadyHandled
		return report
	}

	record := func(rfpID, vendorID string, outcome internal.MessageOutcome) {
		if err := r.db.RecordInboxMessage(msg.Provider, msg.MessageID, rfpID, vendorID, outcome); err != nil {
			r.logger.Warn().Err(err).Str("messageId", msg.MessageID).Msg("ledger write failed")
		}
	}

	rfpID, ok := internal.ParseSubjectRef(msg.Subject)
	if !ok {
		report.Outcome = internal.OutcomeNoRef
		record("", "", internal.OutcomeNoRef)
		return report
	}
	report.RFPID = rfpID

	rfp, err := r.db.GetRFP(rfpID)
	if err != nil {
		report.Outcome = internal.OutcomeParseFailed
		report.Detail = err.Error()
		return report
	}
	if rfp == nil {
		report.Outcome = internal.OutcomeUnknownRFP
		record(rfpID, "", internal.OutcomeUnknownRFP)
		return report
	}

	vendor, err := r.db.FindVendorByEmail(strings.ToLower(strings.TrimSpace(msg.From)))
	if err != nil {
		report.Outcome = internal.OutcomeParseFailed
		report.Detail = err.Error()
		return report
	}
	if vendor == nil {
		report.Outcome = internal.OutcomeUnknownVendor
		record(rfpID, "", internal.OutcomeUnknownVendor)
		return report
	}
	report.VendorID = vendor.ID

	body, err := ExtractBody(msg.Raw, r.cfg.BodyStoreMaxChars)
	if err != nil || strings.TrimSpace(body) == "" {
		report.Outcome = internal.OutcomeParseFailed
		if err != nil {
			report.Detail = err.Error()
		} else {
			report.Detail = "empty body"
		}
		record(rfpID, vendor.ID, internal.OutcomeParseFailed)
		return report
	}

	data, err := r.extractor.ParseProposal(ctx, util.TruncateRunes(body, r.cfg.AIInputMaxChars))
	if err != nil {
		// Extraction failures stay off the ledger: a later cycle may
		// succeed once the provider recovers.
		report.Outcome = internal.OutcomeExtractFailed
		report.Detail = err.Error()
		return report
	}

	receivedAt := msg.ReceivedAt
	if receivedAt == "" {
		receivedAt = time.Now().UTC().Format(time.RFC3339)
	}
	proposal := internal.Proposal{
		ID:           util.NewID(),
		RFPID:        rfpID,
		VendorID:     vendor.ID,
		EmailContent: body,
		ReceivedAt:   receivedAt,
		Data:         data,
	}
	if err := r.db.CreateProposal(proposal); err != nil {
		report.Outcome = internal.OutcomeParseFailed
		report.Detail = err.Error()
		return report
	}

	record(rfpID, vendor.ID, internal.OutcomeProcessed)
	report.Outcome = internal.OutcomeProcessed
	return report
}
