package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"procureai/internal"
	"procureai/internal/ai"
	"procureai/internal/config"
	"procureai/internal/storage"
	"procureai/internal/util"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
	err      error
}

func (s *stubConnector) FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.messages, nil
}

type stubExtractor struct {
	proposalErr error
	calls       int
}

func (s *stubExtractor) ParseRequest(ctx context.Context, text string) (internal.StructuredRequest, error) {
	return internal.StructuredRequest{}, nil
}

func (s *stubExtractor) ParseProposal(ctx context.Context, body string) (internal.ProposalData, error) {
	s.calls++
	if s.proposalErr != nil {
		return internal.ProposalData{}, s.proposalErr
	}
	return internal.ProposalData{TotalPrice: 11500, DeliveryTimeline: "2 weeks", Score: 80, Summary: "ok"}, nil
}

func (s *stubExtractor) Compare(ctx context.Context, originalRequest string, entries []ai.ComparisonEntry) (internal.Comparison, error) {
	return internal.Comparison{}, nil
}

func testConfig() config.Config {
	return config.Config{
		InboxLabel:        "INBOX",
		InboxFetchMax:     50,
		BodyStoreMaxChars: 5000,
		AIInputMaxChars:   12000,
	}
}

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedRFPAndVendor(t *testing.T, db *storage.DB) (internal.RFP, internal.Vendor) {
	t.Helper()
	rfp := internal.RFP{
		ID:              util.NewID(),
		Title:           "Office laptops",
		OriginalRequest: "Need 10 laptops under 50k",
		Status:          internal.StatusSent,
		CreatedAt:       "2026-08-01T00:00:00Z",
	}
	if err := db.CreateRFP(rfp); err != nil {
		t.Fatal(err)
	}
	vendor := internal.Vendor{
		ID:        util.NewID(),
		Name:      "TechCorp",
		Email:     "sales@techcorp.example.com",
		CreatedAt: "2026-08-01T00:00:00Z",
	}
	if err := db.CreateVendor(vendor); err != nil {
		t.Fatal(err)
	}
	return rfp, vendor
}

func rawReply(rfpID string) internal.FetchedMailMessage {
	subject := "Re: Request for Proposal: Office laptops " + internal.SubjectRef(rfpID)
	raw := fmt.Sprintf("From: sales@techcorp.example.com\r\nSubject: %s\r\n\r\nTotal: $11,500. Delivery 2 weeks.\r\n", subject)
	return internal.FetchedMailMessage{
		Provider:   "imap",
		MessageID:  "<reply-1@techcorp.example.com>",
		Subject:    subject,
		From:       "sales@techcorp.example.com",
		ReceivedAt: "2026-08-10T09:15:00Z",
		Raw:        []byte(raw),
	}
}

func TestRunCycleEmptyMailbox(t *testing.T) {
	db := openTestDB(t)
	rec := NewReconciler(&stubConnector{}, db, &stubExtractor{}, testConfig(), nil)

	res, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalFound != 0 || res.Processed != 0 || len(res.Reports) != 0 {
		t.Fatalf("res=%+v", res)
	}
}

func TestRunCycleConnectFailure(t *testing.T) {
	db := openTestDB(t)
	rec := NewReconciler(&stubConnector{err: errors.New("dial tcp: refused")}, db, &stubExtractor{}, testConfig(), nil)

	_, err := rec.RunCycle(context.Background())
	if err == nil {
		t.Fatal("want error")
	}
}

func TestRunCycleMixedMailbox(t *testing.T) {
	db := openTestDB(t)
	rfp, vendor := seedRFPAndVendor(t, db)

	noRef := internal.FetchedMailMessage{
		Provider:  "imap",
		MessageID: "<newsletter@example.com>",
		Subject:   "Weekly deals",
		From:      "noreply@example.com",
		Raw:       []byte("From: noreply@example.com\r\nSubject: Weekly deals\r\n\r\nBuy now\r\n"),
	}
	conn := &stubConnector{messages: []internal.FetchedMailMessage{noRef, rawReply(rfp.ID)}}
	rec := NewReconciler(conn, db, &stubExtractor{}, testConfig(), nil)

	res, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalFound != 2 {
		t.Fatalf("totalFound=%d", res.TotalFound)
	}
	if res.Processed != 1 {
		t.Fatalf("processed=%d", res.Processed)
	}
	if res.Processed > res.TotalFound {
		t.Fatal("processed exceeds totalFound")
	}
	if res.Reports[0].Outcome != internal.OutcomeNoRef {
		t.Fatalf("outcome0=%s", res.Reports[0].Outcome)
	}
	if res.Reports[1].Outcome != internal.OutcomeProcessed {
		t.Fatalf("outcome1=%s", res.Reports[1].Outcome)
	}

	proposals, err := db.ListProposalsByRFP(rfp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposals) != 1 {
		t.Fatalf("proposals=%d", len(proposals))
	}
	if proposals[0].VendorID != vendor.ID {
		t.Fatalf("vendorId=%s", proposals[0].VendorID)
	}
	if proposals[0].Data.TotalPrice != 11500 {
		t.Fatalf("totalPrice=%g", proposals[0].Data.TotalPrice)
	}
}

func TestRunCycleUnknownRFP(t *testing.T) {
	db := openTestDB(t)
	seedRFPAndVendor(t, db)

	msg := rawReply("000000000000000000000000")
	rec := NewReconciler(&stubConnector{messages: []internal.FetchedMailMessage{msg}}, db, &stubExtractor{}, testConfig(), nil)

	res, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 0 {
		t.Fatalf("processed=%d", res.Processed)
	}
	if res.Reports[0].Outcome != internal.OutcomeUnknownRFP {
		t.Fatalf("outcome=%s", res.Reports[0].Outcome)
	}
}

func TestRunCycleUnknownVendor(t *testing.T) {
	db := openTestDB(t)
	rfp, _ := seedRFPAndVendor(t, db)

	msg := rawReply(rfp.ID)
	msg.From = "stranger@nowhere.example.com"
	rec := NewReconciler(&stubConnector{messages: []internal.FetchedMailMessage{msg}}, db, &stubExtractor{}, testConfig(), nil)

	res, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reports[0].Outcome != internal.OutcomeUnknownVendor {
		t.Fatalf("outcome=%s", res.Reports[0].Outcome)
	}
	proposals, _ := db.ListProposalsByRFP(rfp.ID)
	if len(proposals) != 0 {
		t.Fatalf("proposals=%d", len(proposals))
	}
}

func TestRunCycleExtractFailureIsRetryable(t *testing.T) {
	db := openTestDB(t)
	rfp, _ := seedRFPAndVendor(t, db)

	ext := &stubExtractor{proposalErr: fmt.Errorf("%w: all models failed", ai.ErrProvider)}
	conn := &stubConnector{messages: []internal.FetchedMailMessage{rawReply(rfp.ID)}}
	rec := NewReconciler(conn, db, ext, testConfig(), nil)

	res, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reports[0].Outcome != internal.OutcomeExtractFailed {
		t.Fatalf("outcome=%s", res.Reports[0].Outcome)
	}

	// The failure stays off the ledger, so the same message is
	// attempted again on the next cycle.
	ext.proposalErr = nil
	res, err = rec.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reports[0].Outcome != internal.OutcomeProcessed {
		t.Fatalf("outcome=%s", res.Reports[0].Outcome)
	}
}

func TestRunCycleRedeliveryDoesNotDuplicate(t *testing.T) {
	db := openTestDB(t)
	rfp, _ := seedRFPAndVendor(t, db)

	conn := &stubConnector{messages: []internal.FetchedMailMessage{rawReply(rfp.ID)}}
	ext := &stubExtractor{}
	rec := NewReconciler(conn, db, ext, testConfig(), nil)

	if _, err := rec.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	res, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 0 {
		t.Fatalf("processed=%d", res.Processed)
	}
	if res.Reports[0].Outcome != internal.OutcomeAlreadyHandled {
		t.Fatalf("outcome=%s", res.Reports[0].Outcome)
	}
	if ext.calls != 1 {
		t.Fatalf("extractor calls=%d", ext.calls)
	}

	proposals, err := db.ListProposalsByRFP(rfp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposals) != 1 {
		t.Fatalf("proposals=%d", len(proposals))
	}
}
