package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadGeneratorOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: test
backend:
  type: memory
generator:
  promotion_rate: 0
  promotion_uplift: 1.5
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// explicit zero must survive as a set value, not collapse to "absent"
	if c.Generator.PromotionRate == nil || *c.Generator.PromotionRate != 0 {
		t.Fatalf("promotion_rate = %v, want explicit 0", c.Generator.PromotionRate)
	}
	if c.Generator.PromotionUplift == nil || *c.Generator.PromotionUplift != 1.5 {
		t.Fatalf("promotion_uplift = %v, want 1.5", c.Generator.PromotionUplift)
	}
	// omitted keys stay nil so defaults apply downstream
	if c.Generator.WeekendFactor != nil {
		t.Fatalf("weekend_factor = %v, want nil", *c.Generator.WeekendFactor)
	}
	if c.Generator.StockMin != nil {
		t.Fatalf("stock_min = %v, want nil", *c.Generator.StockMin)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeConfig(t, `
environment: test
backend:
  type: carrier-pigeon
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for unknown backend")
	}
}
