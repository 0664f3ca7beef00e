package rfp

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"procureai/internal"
	"procureai/internal/ai"
	"procureai/internal/config"
	"procureai/internal/mailer"
	"procureai/internal/storage"
	"procureai/internal/util"
)

type stubExtractor struct {
	requestErr  error
	compareErr  error
	lastEntries []ai.ComparisonEntry
}

func (s *stubExtractor) ParseRequest(ctx context.Context, text string) (internal.StructuredRequest, error) {
	if s.requestErr != nil {
		return internal.StructuredRequest{}, s.requestErr
	}
	budget := 50000.0
	return internal.StructuredRequest{
		Budget:   &budget,
		Currency: "USD",
		Items:    []internal.RFPItem{{Name: "Laptop", Quantity: 10}},
	}, nil
}

func (s *stubExtractor) ParseProposal(ctx context.Context, body string) (internal.ProposalData, error) {
	return internal.ProposalData{}, nil
}

func (s *stubExtractor) Compare(ctx context.Context, originalRequest string, entries []ai.ComparisonEntry) (internal.Comparison, error) {
	s.lastEntries = entries
	if s.compareErr != nil {
		return internal.Comparison{}, s.compareErr
	}
	return internal.Comparison{Recommendation: entries[0].Vendor, Reasoning: "cheapest"}, nil
}

func newTestService(t *testing.T) (*Service, *storage.DB, *stubExtractor) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{MockEmail: true, AIInputMaxChars: 12000}
	ext := &stubExtractor{}
	svc := NewService(db, ext, mailer.New(cfg, nil), cfg, nil)
	return svc, db, ext
}

func seedVendor(t *testing.T, db *storage.DB, name, email string) internal.Vendor {
	t.Helper()
	v := internal.Vendor{ID: util.NewID(), Name: name, Email: email, CreatedAt: "2026-08-01T00:00:00Z"}
	if err := db.CreateVendor(v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCreateWithParse(t *testing.T) {
	svc, _, _ := newTestService(t)

	rfp, err := svc.Create(context.Background(), "Office laptops", "Need 10 laptops under 50k USD", true)
	if err != nil {
		t.Fatal(err)
	}
	if rfp.Status != internal.StatusDraft {
		t.Fatalf("status=%s", rfp.Status)
	}
	if rfp.Structured.Budget == nil || *rfp.Structured.Budget != 50000 {
		t.Fatalf("structured=%+v", rfp.Structured)
	}

	got, err := svc.Get(rfp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Office laptops" {
		t.Fatalf("title=%s", got.Title)
	}
}

func TestCreateWithoutParseSkipsExtraction(t *testing.T) {
	svc, _, ext := newTestService(t)
	ext.requestErr = errors.New("should not be called")

	rfp, err := svc.Create(context.Background(), "Office laptops", "Need 10 laptops", false)
	if err != nil {
		t.Fatal(err)
	}
	if rfp.Structured.Budget != nil {
		t.Fatalf("structured unexpectedly set: %+v", rfp.Structured)
	}
}

func TestCreateParseFailureAborts(t *testing.T) {
	svc, _, ext := newTestService(t)
	ext.requestErr = ai.ErrProvider

	_, err := svc.Create(context.Background(), "Office laptops", "Need 10 laptops", true)
	if err == nil {
		t.Fatal("want error")
	}

	rfps, err := svc.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(rfps) != 0 {
		t.Fatalf("rfps=%d", len(rfps))
	}
}

func TestSendMarksRFPOnce(t *testing.T) {
	svc, db, _ := newTestService(t)
	v1 := seedVendor(t, db, "TechCorp", "sales@techcorp.example.com")
	v2 := seedVendor(t, db, "GlobalTech", "quotes@globaltech.example.com")

	rfp, err := svc.Create(context.Background(), "Office laptops", "Need 10 laptops", false)
	if err != nil {
		t.Fatal(err)
	}

	report, err := svc.Send(context.Background(), rfp.ID, []string{v1.ID, v2.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.SentTo) != 2 || len(report.Failed) != 0 {
		t.Fatalf("report=%+v", report)
	}

	got, err := svc.Get(rfp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != internal.StatusSent {
		t.Fatalf("status=%s", got.Status)
	}
	if len(got.SentTo) != 2 {
		t.Fatalf("sentTo=%v", got.SentTo)
	}
}

func TestSendUnknownVendorReported(t *testing.T) {
	svc, db, _ := newTestService(t)
	v1 := seedVendor(t, db, "TechCorp", "sales@techcorp.example.com")

	rfp, err := svc.Create(context.Background(), "Office laptops", "Need 10 laptops", false)
	if err != nil {
		t.Fatal(err)
	}

	report, err := svc.Send(context.Background(), rfp.ID, []string{v1.ID, "missing-vendor"})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.SentTo) != 1 || len(report.Failed) != 1 {
		t.Fatalf("report=%+v", report)
	}
}

func TestCompareNeedsTwoProposals(t *testing.T) {
	svc, db, _ := newTestService(t)
	v1 := seedVendor(t, db, "TechCorp", "sales@techcorp.example.com")

	rfp, err := svc.Create(context.Background(), "Office laptops", "Need 10 laptops", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Simulate(context.Background(), rfp.ID, v1.ID, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Compare(context.Background(), rfp.ID); err == nil {
		t.Fatal("want error with a single proposal")
	}
}

func TestCompareResolvesVendorNames(t *testing.T) {
	svc, db, ext := newTestService(t)
	v1 := seedVendor(t, db, "TechCorp", "sales@techcorp.example.com")
	v2 := seedVendor(t, db, "GlobalTech", "quotes@globaltech.example.com")

	rfp, err := svc.Create(context.Background(), "Office laptops", "Need 10 laptops", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Simulate(context.Background(), rfp.ID, v1.ID, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Simulate(context.Background(), rfp.ID, v2.ID, ""); err != nil {
		t.Fatal(err)
	}

	comparison, err := svc.Compare(context.Background(), rfp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if comparison.Recommendation == "" {
		t.Fatal("empty recommendation")
	}
	if len(ext.lastEntries) != 2 {
		t.Fatalf("entries=%d", len(ext.lastEntries))
	}
	names := map[string]bool{}
	for _, e := range ext.lastEntries {
		names[e.Vendor] = true
	}
	if !names["TechCorp"] || !names["GlobalTech"] {
		t.Fatalf("vendor names not resolved: %v", names)
	}
}

func TestParsePersistsStructured(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), "Office laptops", "Need 10 laptops", false)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := svc.Parse(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Structured.Budget == nil {
		t.Fatal("structured not set")
	}

	got, err := svc.Get(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Structured.Budget == nil || *got.Structured.Budget != 50000 {
		t.Fatalf("structured not persisted: %+v", got.Structured)
	}
}
