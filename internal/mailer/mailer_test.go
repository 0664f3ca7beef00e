package mailer

import (
	"strings"
	"testing"

	"procureai/internal"
	"procureai/internal/util"
)

func TestInvitationSubjectRoundTrips(t *testing.T) {
	rfp := internal.RFP{ID: util.NewID(), Title: "Office laptops"}
	subject := InvitationSubject(rfp)

	got, ok := internal.ParseSubjectRef(subject)
	if !ok {
		t.Fatalf("no token in %q", subject)
	}
	if got != rfp.ID {
		t.Fatalf("got=%s want=%s", got, rfp.ID)
	}

	// Reply prefixes must not break token extraction.
	got, ok = internal.ParseSubjectRef("Re: " + subject)
	if !ok || got != rfp.ID {
		t.Fatalf("reply prefix broke token: %q", "Re: "+subject)
	}
}

func TestInvitationBodies(t *testing.T) {
	budget := 50000.0
	deadline := "2026-09-30"
	contact := "Jordan Lee"
	rfp := internal.RFP{
		ID:    util.NewID(),
		Title: "Office laptops",
		Structured: internal.StructuredRequest{
			Budget:       &budget,
			Currency:     "USD",
			Deadline:     &deadline,
			Items:        []internal.RFPItem{{Name: "Laptop", Quantity: 10, Specs: "16GB RAM"}},
			Requirements: []string{"3 year warranty"},
		},
	}
	vendor := internal.Vendor{Name: "TechCorp", ContactPerson: &contact}

	text, htmlBody := InvitationBodies(rfp, vendor)

	for _, want := range []string{"Dear Jordan Lee", "Laptop (qty: 10)", "16GB RAM", "50000.00 USD", "2026-09-30", "3 year warranty"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
	for _, want := range []string{"<b>Laptop</b>", "3 year warranty", "50000.00 USD"} {
		if !strings.Contains(htmlBody, want) {
			t.Fatalf("html missing %q", want)
		}
	}
}

func TestComposeMultipart(t *testing.T) {
	msg := compose("ProcureAI System", "buyer@example.com", "sales@techcorp.example.com", "Request for Proposal: Laptops", "plain body", "<p>html body</p>")

	if !strings.Contains(msg, "Subject: Request for Proposal: Laptops\r\n") {
		t.Fatalf("subject missing:\n%s", msg)
	}
	if !strings.Contains(msg, "multipart/alternative") {
		t.Fatal("not multipart")
	}
	if !strings.Contains(msg, "Content-Transfer-Encoding: base64") {
		t.Fatal("parts not base64 encoded")
	}
}

func TestComposePlainOnly(t *testing.T) {
	msg := compose("ProcureAI System", "buyer@example.com", "v@example.com", "hello", "body text", "")
	if !strings.Contains(msg, "text/plain") || strings.Contains(msg, "multipart") {
		t.Fatalf("msg=%s", msg)
	}
	if !strings.Contains(msg, "body text") {
		t.Fatal("body missing")
	}
}
