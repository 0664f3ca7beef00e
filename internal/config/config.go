package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	GeminiAPIKey     string
	GeminiModels     []string
	AITimeoutMs      int
	AIInputMaxChars  int
	AIMock           bool
	AIFallbackSample bool

	BodyStoreMaxChars int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFromName string
	SMTPUseTLS   bool
	MockEmail    bool

	IMAPHost          string
	IMAPPort          int
	IMAPSecure        bool
	IMAPUser          string
	IMAPPassword      string
	IMAPAuthTimeoutMs int

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	InboxProvider string
	InboxLabel    string
	InboxFetchMax int

	ListenerSchedule string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	smtpHost := getEnv("EMAIL_HOST", "smtp.gmail.com")
	smtpUser := getEnv("EMAIL_USER", "")
	smtpPass := getEnv("EMAIL_PASS", "")

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModels:     getEnvList("GEMINI_MODELS", []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}),
		AITimeoutMs:      getEnvInt("AI_TIMEOUT_MS", 30000),
		AIInputMaxChars:  getEnvInt("AI_INPUT_MAX_CHARS", 12000),
		AIMock:           getEnvBool("MOCK_AI", false),
		AIFallbackSample: getEnvBool("AI_FALLBACK_SAMPLE", false),

		BodyStoreMaxChars: getEnvInt("BODY_STORE_MAX_CHARS", 5000),

		SMTPHost:     smtpHost,
		SMTPPort:     getEnvInt("EMAIL_PORT", 587),
		SMTPUser:     smtpUser,
		SMTPPassword: smtpPass,
		SMTPFromName: getEnv("EMAIL_FROM_NAME", "ProcureAI System"),
		SMTPUseTLS:   getEnvBool("EMAIL_USE_TLS", false),
		MockEmail:    getEnvBool("MOCK_EMAIL", false),

		// Most providers pair smtp.x with imap.x, so the IMAP side
		// defaults to the SMTP credentials with the host prefix swapped.
		IMAPHost:          getEnv("IMAP_HOST", strings.Replace(smtpHost, "smtp", "imap", 1)),
		IMAPPort:          getEnvInt("IMAP_PORT", 993),
		IMAPSecure:        getEnvBool("IMAP_SECURE", true),
		IMAPUser:          getEnv("IMAP_USER", smtpUser),
		IMAPPassword:      getEnv("IMAP_PASSWORD", smtpPass),
		IMAPAuthTimeoutMs: getEnvInt("IMAP_AUTH_TIMEOUT_MS", 3000),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		InboxProvider: getEnv("INBOX_PROVIDER", "imap"),
		InboxLabel:    getEnv("INBOX_LABEL", "INBOX"),
		InboxFetchMax: getEnvInt("INBOX_FETCH_MAX", 50),

		ListenerSchedule: getEnv("LISTENER_SCHEDULE", "@every 30s"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
