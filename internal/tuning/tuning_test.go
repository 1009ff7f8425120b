package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Default()
	if d.Trade.MaxOfferItems != 20 {
		t.Fatalf("max_offer_items: got %d want 20", d.Trade.MaxOfferItems)
	}
	if d.Trade.MaxCurrency != 1_000_000_000 {
		t.Fatalf("max_currency: got %d want 1000000000", d.Trade.MaxCurrency)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := `
protocol_version: "1.0"
listen_addr: ":9999"
trade:
  max_offer_items: 5
  max_currency: 1000
trust:
  admins: ["P000009"]
  trusted_pairs:
    - ["P000001", "P000002"]
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tn, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tn.ListenAddr != ":9999" || tn.Trade.MaxOfferItems != 5 || tn.Trade.MaxCurrency != 1000 {
		t.Fatalf("overrides not applied: %+v", tn)
	}
	if len(tn.Trust.Admins) != 1 || tn.Trust.TrustedPairs[0][1] != "P000002" {
		t.Fatalf("trust tables not parsed: %+v", tn.Trust)
	}
	// Untouched keys keep their defaults.
	if tn.RateLimits.OfferMax != Default().RateLimits.OfferMax {
		t.Fatalf("defaults lost: %+v", tn.RateLimits)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("missing file must error")
	}
}
