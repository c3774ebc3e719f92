package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"megatex/internal/quote"
)

type Config struct {
	DBPath    string
	OutputDir string
	OutboxDir string

	DesignsXLSXPath   string
	BOMXLSXPath       string
	CatalogXLSXPath   string
	FabricsXLSXPath   string
	ReloadIntervalSec int

	TaxRate       float64
	MoneyDecimals int

	CompanyName     string
	CompanyEmail    string
	MailFromName    string
	MailFromAddress string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost          string
	IMAPPort          int
	IMAPSecure        bool
	IMAPUser          string
	IMAPPassword      string
	IMAPDraftsMailbox string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}
	dataDir := filepath.Join(cwd, "data")

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(dataDir, "megatex.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		OutboxDir: getEnv("OUTBOX_DIR", filepath.Join(dataDir, "outbox")),

		DesignsXLSXPath:   getEnv("DESIGNS_XLSX_PATH", filepath.Join(dataDir, "disenos.xlsx")),
		BOMXLSXPath:       getEnv("BOM_XLSX_PATH", filepath.Join(dataDir, "bom.xlsx")),
		CatalogXLSXPath:   getEnv("CATALOG_XLSX_PATH", filepath.Join(dataDir, "catalogo.xlsx")),
		FabricsXLSXPath:   getEnv("FABRICS_XLSX_PATH", filepath.Join(dataDir, "telas.xlsx")),
		ReloadIntervalSec: getEnvInt("RELOAD_INTERVAL_SEC", 30),

		TaxRate:       getEnvFloat("TAX_RATE", 0.19),
		MoneyDecimals: getEnvInt("MONEY_DECIMALS", 2),

		CompanyName:     getEnv("COMPANY_NAME", "Megatex"),
		CompanyEmail:    getEnv("COMPANY_EMAIL", ""),
		MailFromName:    getEnv("MAIL_FROM_NAME", "Megatex Cotizaciones"),
		MailFromAddress: getEnv("MAIL_FROM_ADDRESS", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:          getEnv("IMAP_HOST", ""),
		IMAPPort:          getEnvInt("IMAP_PORT", 993),
		IMAPSecure:        getEnvBool("IMAP_SECURE", true),
		IMAPUser:          getEnv("IMAP_USER", ""),
		IMAPPassword:      getEnv("IMAP_PASSWORD", ""),
		IMAPDraftsMailbox: getEnv("IMAP_DRAFTS_MAILBOX", "Drafts"),
	}

	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return Config{}, fmt.Errorf("TAX_RATE must be in [0, 1): %v", cfg.TaxRate)
	}
	if cfg.MoneyDecimals < 0 || cfg.MoneyDecimals > 6 {
		return Config{}, fmt.Errorf("MONEY_DECIMALS must be in [0, 6]: %d", cfg.MoneyDecimals)
	}

	return cfg, nil
}

// QuoteSettings converts the tax and rounding keys for the quote engine.
func (c Config) QuoteSettings() quote.Settings {
	return quote.Settings{
		TaxRate:     decimal.NewFromFloat(c.TaxRate),
		MoneyPlaces: int32(c.MoneyDecimals),
	}
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

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
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
