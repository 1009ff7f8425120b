// Package tuning loads the server's yaml configuration.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`

	Trade      TradeLimits `yaml:"trade"`
	RateLimits RateLimits  `yaml:"rate_limits"`
	Trust      Trust       `yaml:"trust"`
}

type TradeLimits struct {
	MaxOfferItems int    `yaml:"max_offer_items"`
	MaxCurrency   uint64 `yaml:"max_currency"`
}

type RateLimits struct {
	OfferWindowMs int `yaml:"offer_window_ms"`
	OfferMax      int `yaml:"offer_max"`
}

// Trust is the static privilege table. Real deployments would back this
// with an account service; the reference server reads it from config.
type Trust struct {
	Elevated     []string    `yaml:"elevated"`
	Admins       []string    `yaml:"admins"`
	TrustedPairs [][2]string `yaml:"trusted_pairs"`
}

func Default() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		ListenAddr:      ":8777",
		DataDir:         "data",
		Trade: TradeLimits{
			MaxOfferItems: 20,
			MaxCurrency:   1_000_000_000,
		},
		RateLimits: RateLimits{
			OfferWindowMs: 2000,
			OfferMax:      10,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
