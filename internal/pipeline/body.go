package pipeline

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"

	"procureai/internal/util"
)

// ExtractBody pulls the reply text out of a raw RFC 5322 message. The
// plain part wins when present, otherwise the HTML part is flattened,
// and text from PDF attachments is appended so quotes sent as documents
// still reach the extractor. The result is capped at maxChars runes.
func ExtractBody(raw []byte, maxChars int) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}

	body := strings.TrimSpace(env.Text)
	if body == "" && env.HTML != "" {
		body = htmlToText(env.HTML)
	}

	for _, att := range env.Attachments {
		if !strings.HasSuffix(strings.ToLower(att.FileName), ".pdf") {
			continue
		}
		text, err := pdfToText(att.Content)
		if err != nil || text == "" {
			continue
		}
		if body != "" {
			body += "\n\n"
		}
		body += text
	}

	return util.TruncateRunes(body, maxChars), nil
}

// BodySubject returns the Subject header of a raw message, for callers
// that only have the bytes.
func BodySubject(raw []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	return env.GetHeader("Subject"), nil
}

func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script,style").Remove()

	lines := []string{}
	doc.Find("p,li,tr,h1,h2,h3,div").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Filter("p,li,tr,div").Length() > 0 {
			return
		}
		if text := util.NormalizeSpaces(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		return util.NormalizeSpaces(doc.Text())
	}
	return strings.Join(lines, "\n")
}

func pdfToText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	parts := []string{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
