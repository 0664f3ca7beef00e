package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractBodyPrefersPlainText(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "vendor_reply.eml"))
	if err != nil {
		t.Fatal(err)
	}

	body, err := ExtractBody(raw, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Total price: $11,500 USD") {
		t.Fatalf("plain part missing: %q", body)
	}
	if strings.Contains(body, "<b>") {
		t.Fatalf("html leaked into body: %q", body)
	}
}

func TestExtractBodyHTMLFallback(t *testing.T) {
	raw := []byte("From: v@example.com\r\n" +
		"Subject: quote\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><body><p>Price: 900 USD</p><p>Delivery in 5 days</p></body></html>\r\n")

	body, err := ExtractBody(raw, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Price: 900 USD") {
		t.Fatalf("body=%q", body)
	}
	if !strings.Contains(body, "Delivery in 5 days") {
		t.Fatalf("body=%q", body)
	}
	if strings.Contains(body, "<p>") {
		t.Fatalf("tags survived: %q", body)
	}
}

func TestExtractBodyCapsLength(t *testing.T) {
	long := strings.Repeat("price data ", 1000)
	raw := []byte("From: v@example.com\r\nSubject: quote\r\n\r\n" + long)

	body, err := ExtractBody(raw, 100)
	if err != nil {
		t.Fatal(err)
	}
	if got := len([]rune(body)); got > 100 {
		t.Fatalf("len=%d", got)
	}
}

func TestBodySubject(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "vendor_reply.eml"))
	if err != nil {
		t.Fatal(err)
	}
	subject, err := BodySubject(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(subject, "[Ref: 6653f1a2b3c4d5e6f7a8b9c0]") {
		t.Fatalf("subject=%q", subject)
	}
}
