package mailer

import (
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/phuslu/log"

	"procureai/internal/config"
)

// Mailer sends outbound RFP mail over SMTP. In mock mode messages are
// logged instead of sent, so the rest of the flow can be exercised
// without credentials.
type Mailer struct {
	cfg    config.Config
	logger *log.Logger
}

func New(cfg config.Config, logger *log.Logger) *Mailer {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Mailer{cfg: cfg, logger: logger}
}

func (m *Mailer) Send(to, subject, textBody, htmlBody string) error {
	if m.cfg.MockEmail {
		m.logger.Info().Str("to", to).Str("subject", subject).Msg("mock mode, email not sent")
		return nil
	}
	if m.cfg.SMTPHost == "" {
		return fmt.Errorf("EMAIL_HOST is not configured")
	}
	if m.cfg.SMTPUser == "" || m.cfg.SMTPPassword == "" {
		return fmt.Errorf("EMAIL_USER/EMAIL_PASS are not configured")
	}

	msg := compose(m.cfg.SMTPFromName, m.cfg.SMTPUser, to, subject, textBody, htmlBody)
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)

	var err error
	if m.cfg.SMTPUseTLS {
		err = sendTLS(addr, m.cfg.SMTPHost, auth, m.cfg.SMTPUser, to, msg)
	} else {
		err = smtp.SendMail(addr, auth, m.cfg.SMTPUser, []string{to}, []byte(msg))
	}
	if err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}

	m.logger.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

func compose(fromName, from, to, subject, textBody, htmlBody string) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))

	if htmlBody == "" {
		msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		msg.WriteString(textBody)
		return msg.String()
	}

	boundary := newBoundary()
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary))

	writePart := func(contentType, body string) {
		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
		msg.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		msg.WriteString(wrapBase64(body))
		msg.WriteString("\r\n")
	}
	if textBody != "" {
		writePart("text/plain", textBody)
	}
	writePart("text/html", htmlBody)
	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return msg.String()
}

// sendTLS dials the server with implicit TLS and falls back to a
// STARTTLS upgrade when the direct handshake is refused (port 587).
func sendTLS(addr, host string, auth smtp.Auth, from, to, msg string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return sendStartTLS(addr, host, auth, from, to, msg)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()
	return transmit(client, auth, from, to, msg)
}

func sendStartTLS(addr, host string, auth smtp.Auth, from, to, msg string) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}
	return transmit(client, auth, from, to, msg)
}

func transmit(client *smtp.Client, auth smtp.Auth, from, to, msg string) error {
	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func newBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "procureai_boundary"
	}
	return fmt.Sprintf("procureai_%x", b)
}

func wrapBase64(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	const lineLen = 76
	var out strings.Builder
	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		out.WriteString(encoded[i:end])
		if end < len(encoded) {
			out.WriteString("\r\n")
		}
	}
	return out.String()
}
