package quantize

import (
	"errors"
	"math"
	"testing"

	"RugDetector/internal/schema"
)

func baseFeatures(reg *schema.Registry) map[string]float64 {
	m := make(map[string]float64, reg.Size())
	for _, name := range reg.CanonicalOrder() {
		m[name] = 0
	}
	return m
}

func indexOf(names []string, target string) int {
	for i, n := range names {
		if n == target {
			return i
		}
	}
	return -1
}

func TestQuantizeLength(t *testing.T) {
	reg := schema.New()
	vec, err := Quantize(reg, baseFeatures(reg))
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}
	if len(vec) != schema.FieldCount {
		t.Fatalf("len = %d, want %d", len(vec), schema.FieldCount)
	}
}

func TestQuantizeConcreteScenario(t *testing.T) {
	reg := schema.New()
	m := baseFeatures(reg)
	m["ownerBalance"] = 0.85
	m["liquidityRatio"] = 0.42

	vec, err := Quantize(reg, m)
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}

	order := reg.CanonicalOrder()
	li := indexOf(order, "liquidityRatio")
	oi := indexOf(order, "ownerBalance")
	if li < 0 || oi < 0 {
		t.Fatal("fields not found in canonical order")
	}
	// "liquidityRatio" sorts before "ownerBalance".
	if li >= oi {
		t.Fatalf("liquidityRatio index %d not before ownerBalance index %d", li, oi)
	}
	if vec[li] != 420 {
		t.Errorf("liquidityRatio quantized = %d, want 420", vec[li])
	}
	if vec[oi] != 850 {
		t.Errorf("ownerBalance quantized = %d, want 850", vec[oi])
	}
	for i, q := range vec {
		if i != li && i != oi && q != 0 {
			t.Errorf("position %d (%s) = %d, want 0", i, order[i], q)
		}
	}
}

func TestQuantizeTruncatesTowardZero(t *testing.T) {
	reg := schema.New()
	order := reg.CanonicalOrder()

	// 0.8995 * 1000 = 899.5 must truncate to 899, not round to 900.
	m := baseFeatures(reg)
	m["launchFairness"] = 0.8995
	vec, err := Quantize(reg, m)
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}
	if got := vec[indexOf(order, "launchFairness")]; got != 899 {
		t.Fatalf("launchFairness quantized = %d, want 899 (truncation)", got)
	}

	// Toward zero also for negatives: -899.5 -> -899.
	m["launchFairness"] = -0.8995
	vec, err = Quantize(reg, m)
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}
	if got := vec[indexOf(order, "launchFairness")]; got != -899 {
		t.Fatalf("negative truncation = %d, want -899", got)
	}
}

func TestQuantizeClamps(t *testing.T) {
	reg := schema.New()
	order := reg.CanonicalOrder()
	m := baseFeatures(reg)
	m["holderCount"] = 3_000_000_000  // *1000 overflows int32
	m["ownerBalance"] = -3_000_000_000

	vec, err := Quantize(reg, m)
	if err != nil {
		t.Fatalf("clamped input must not error: %v", err)
	}
	if got := vec[indexOf(order, "holderCount")]; got != math.MaxInt32 {
		t.Errorf("holderCount = %d, want %d", got, int32(math.MaxInt32))
	}
	if got := vec[indexOf(order, "ownerBalance")]; got != math.MinInt32 {
		t.Errorf("ownerBalance = %d, want %d", got, int32(math.MinInt32))
	}
}

func TestQuantizeNonFinite(t *testing.T) {
	reg := schema.New()
	order := reg.CanonicalOrder()
	m := baseFeatures(reg)
	m["complexityScore"] = math.NaN()
	m["liquidityPoolSize"] = math.Inf(1)

	vec, err := Quantize(reg, m)
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}
	if got := vec[indexOf(order, "complexityScore")]; got != 0 {
		t.Errorf("NaN quantized = %d, want 0", got)
	}
	if got := vec[indexOf(order, "liquidityPoolSize")]; got != math.MaxInt32 {
		t.Errorf("+Inf quantized = %d, want %d", got, int32(math.MaxInt32))
	}
}

func TestQuantizeOrderIndependentOfInsertion(t *testing.T) {
	reg := schema.New()
	order := reg.CanonicalOrder()

	// Two maps with the same contents built in rotated insertion orders.
	a := make(map[string]float64, len(order))
	b := make(map[string]float64, len(order))
	for i, name := range order {
		a[name] = float64(i) * 0.25
	}
	for i := len(order) - 1; i >= 0; i-- {
		b[order[i]] = float64(i) * 0.25
	}

	va, err := Quantize(reg, a)
	if err != nil {
		t.Fatalf("quantize a: %v", err)
	}
	vb, err := Quantize(reg, b)
	if err != nil {
		t.Fatalf("quantize b: %v", err)
	}
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("position %d differs: %d vs %d", i, va[i], vb[i])
		}
	}
}

func TestQuantizeRejectsMalformedInput(t *testing.T) {
	reg := schema.New()

	m := baseFeatures(reg)
	m["extraField"] = 1
	if _, err := Quantize(reg, m); err == nil {
		t.Fatal("expected error for extra key")
	} else {
		var unknown *schema.UnknownFieldError
		if !errors.As(err, &unknown) {
			t.Fatalf("expected UnknownFieldError, got %v", err)
		}
	}

	m = baseFeatures(reg)
	delete(m, "contractAge")
	if _, err := Quantize(reg, m); err == nil {
		t.Fatal("expected error for missing key")
	} else {
		var missing *schema.MissingFieldError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingFieldError, got %v", err)
		}
	}
}

func TestRoundTripWithinTolerance(t *testing.T) {
	reg := schema.New()
	order := reg.CanonicalOrder()
	m := baseFeatures(reg)
	m["ownerBalance"] = 0.123456
	m["liquidityPoolSize"] = 48213.991
	m["contractAge"] = 365.25
	m["launchFairness"] = 0.8995
	m["creationBlock"] = 18_500_000
	m["sellingPressure"] = 0.0009

	vec, err := Quantize(reg, m)
	if err != nil {
		t.Fatalf("quantize: %v", err)
	}
	back, err := Dequantize(vec)
	if err != nil {
		t.Fatalf("dequantize: %v", err)
	}
	for i, name := range order {
		if diff := math.Abs(back[i] - m[name]); diff > 0.0011 {
			t.Errorf("%s: round-trip diff %g exceeds tolerance", name, diff)
		}
	}
}

func TestDequantizeLengthMismatch(t *testing.T) {
	for _, n := range []int{0, 59, 61} {
		_, err := Dequantize(make([]int32, n))
		var lerr *LengthError
		if !errors.As(err, &lerr) {
			t.Fatalf("len %d: expected LengthError, got %v", n, err)
		}
		if lerr.Got != n || lerr.Want != schema.FieldCount {
			t.Fatalf("len %d: unexpected %+v", n, lerr)
		}
	}
}

func TestDequantizeValues(t *testing.T) {
	vec := make([]int32, schema.FieldCount)
	vec[0] = 420
	vec[1] = -899
	vec[2] = math.MaxInt32
	out, err := Dequantize(vec)
	if err != nil {
		t.Fatalf("dequantize: %v", err)
	}
	if out[0] != 0.42 {
		t.Errorf("out[0] = %g, want 0.42", out[0])
	}
	if out[1] != -0.899 {
		t.Errorf("out[1] = %g, want -0.899", out[1])
	}
	if out[2] != float64(math.MaxInt32)/Scale {
		t.Errorf("out[2] = %g", out[2])
	}
}
