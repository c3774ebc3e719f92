package config

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TAX_RATE", "")
	t.Setenv("MONEY_DECIMALS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	settings := cfg.QuoteSettings()
	if !settings.TaxRate.Equal(decimal.RequireFromString("0.19")) || settings.MoneyPlaces != 2 {
		t.Fatalf("unexpected settings: %+v", settings)
	}
	if cfg.IMAPDraftsMailbox != "Drafts" {
		t.Fatalf("drafts mailbox=%q", cfg.IMAPDraftsMailbox)
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TAX_RATE", "0.16")
	t.Setenv("MONEY_DECIMALS", "0")
	t.Setenv("IMAP_SECURE", "off")
	t.Setenv("RELOAD_INTERVAL_SEC", "nope")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TaxRate != 0.16 || cfg.MoneyDecimals != 0 || cfg.IMAPSecure {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ReloadIntervalSec != 30 {
		t.Fatalf("invalid int must fall back, got %d", cfg.ReloadIntervalSec)
	}
}

func TestLoadRejectsTaxRate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TAX_RATE", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for TAX_RATE=1.5")
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("IMAP_HOST", "  "); err == nil {
		t.Fatal("blank value must fail")
	}
	if err := cfg.Require("IMAP_HOST", "imap.example.com"); err != nil {
		t.Fatal(err)
	}
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
