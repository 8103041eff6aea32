package extractor

import (
	"context"
	"testing"

	"RugDetector/internal/schema"
)

func TestSeed(t *testing.T) {
	cases := []struct {
		address string
		want    int64
	}{
		{"0x0000000000000000000000000000000000000000", 0},
		{"0x000000000000000000000000000000000000270f", 9999},
		{"0x0000000000000000000000000000000000002710", 0}, // 10000 wraps
		{"0xAbCdEf0000000000000000000000000000001000", 4096},
		{"short", 0},
	}
	for _, tc := range cases {
		if got := Seed(tc.address); got != tc.want {
			t.Errorf("Seed(%q) = %d, want %d", tc.address, got, tc.want)
		}
	}
}

func TestSimulatedEmitsFullSchema(t *testing.T) {
	reg := schema.New()
	ex := NewSimulated(reg)

	f, err := ex.Extract(context.Background(), "0x1234567890abcdef1234567890abcdef12345678", "ethereum")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(f) != schema.FieldCount {
		t.Fatalf("got %d features, want %d", len(f), schema.FieldCount)
	}
	for _, name := range reg.CanonicalOrder() {
		if _, ok := f[name]; !ok {
			t.Errorf("missing feature %q", name)
		}
	}
}

func TestSimulatedDeterministic(t *testing.T) {
	reg := schema.New()
	ex := NewSimulated(reg)
	addr := "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

	a, err := ex.Extract(context.Background(), addr, "ethereum")
	if err != nil {
		t.Fatalf("first Extract: %v", err)
	}
	b, err := ex.Extract(context.Background(), addr, "ethereum")
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}
	for name, v := range a {
		if b[name] != v {
			t.Errorf("feature %q differs between runs: %v vs %v", name, v, b[name])
		}
	}
}

func TestSimulatedRiskTiers(t *testing.T) {
	reg := schema.New()
	ex := NewSimulated(reg)

	// Trailing hex 0000000f: seed 15, divisible by 3 and 5.
	risky, err := ex.Extract(context.Background(), "0x000000000000000000000000000000000000000f", "ethereum")
	if err != nil {
		t.Fatalf("Extract risky: %v", err)
	}
	if risky["hasSelfDestruct"] != 1 {
		t.Errorf("high-risk seed: hasSelfDestruct = %v, want 1", risky["hasSelfDestruct"])
	}
	if risky["verifiedContract"] != 0 {
		t.Errorf("suspicious seed: verifiedContract = %v, want 0", risky["verifiedContract"])
	}
	if risky["ownerBalance"] < 0.8 {
		t.Errorf("high-risk seed: ownerBalance = %v, want >= 0.8", risky["ownerBalance"])
	}

	// Trailing hex 00000001: seed 1, neither tier.
	calm, err := ex.Extract(context.Background(), "0x0000000000000000000000000000000000000001", "ethereum")
	if err != nil {
		t.Fatalf("Extract calm: %v", err)
	}
	if calm["hasSelfDestruct"] != 0 {
		t.Errorf("calm seed: hasSelfDestruct = %v, want 0", calm["hasSelfDestruct"])
	}
	if calm["verifiedContract"] != 1 {
		t.Errorf("calm seed: verifiedContract = %v, want 1", calm["verifiedContract"])
	}
}

func TestSimulatedChainFlags(t *testing.T) {
	reg := schema.New()
	ex := NewSimulated(reg)

	f, err := ex.Extract(context.Background(), "0x1234567890abcdef1234567890abcdef12345678", "bsc")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if f["hasUniswapV2"] != 0 {
		t.Errorf("bsc contract should not carry hasUniswapV2, got %v", f["hasUniswapV2"])
	}
}
