package schema

import (
	"errors"
	"sort"
	"testing"
)

func validFeatures() map[string]float64 {
	r := New()
	m := make(map[string]float64, FieldCount)
	for _, name := range r.CanonicalOrder() {
		m[name] = 0
	}
	return m
}

func TestRegistrySize(t *testing.T) {
	r := New()
	if r.Size() != FieldCount {
		t.Fatalf("size = %d, want %d", r.Size(), FieldCount)
	}
	if len(r.Fields()) != FieldCount {
		t.Fatalf("fields len = %d, want %d", len(r.Fields()), FieldCount)
	}
}

func TestCanonicalOrderIsLexicographic(t *testing.T) {
	r := New()
	names := r.CanonicalOrder()
	if !sort.StringsAreSorted(names) {
		t.Fatal("canonical order is not lexicographically sorted")
	}
	// Fields() must agree with CanonicalOrder positionally.
	for i, f := range r.Fields() {
		if f.Name != names[i] {
			t.Fatalf("Fields()[%d] = %q, CanonicalOrder()[%d] = %q", i, f.Name, i, names[i])
		}
	}
}

func TestCanonicalOrderReturnsCopy(t *testing.T) {
	r := New()
	a := r.CanonicalOrder()
	a[0] = "mutated"
	if r.CanonicalOrder()[0] == "mutated" {
		t.Fatal("CanonicalOrder leaked internal state")
	}
}

func TestLookup(t *testing.T) {
	r := New()
	f, ok := r.Lookup("launchFairness")
	if !ok {
		t.Fatal("launchFairness not found")
	}
	if f.Kind != KindRatio || f.Group != GroupTime {
		t.Fatalf("unexpected spec %+v", f)
	}
	if _, ok := r.Lookup("noSuchField"); ok {
		t.Fatal("expected miss for unknown field")
	}
}

func TestValidateOK(t *testing.T) {
	r := New()
	if err := r.Validate(validFeatures()); err != nil {
		t.Fatalf("valid mapping rejected: %v", err)
	}
}

func TestValidateExtraKey(t *testing.T) {
	r := New()
	m := validFeatures()
	m["totallyBogus"] = 1
	err := r.Validate(m)
	if err == nil {
		t.Fatal("expected error for 61 keys")
	}
	var unknown *UnknownFieldError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if len(unknown.Names) != 1 || unknown.Names[0] != "totallyBogus" {
		t.Fatalf("unknown names = %v, want [totallyBogus]", unknown.Names)
	}
	var size *SizeError
	if !errors.As(err, &size) {
		t.Fatalf("expected SizeError alongside, got %v", err)
	}
	if size.Got != 61 {
		t.Fatalf("size.Got = %d, want 61", size.Got)
	}
}

func TestValidateMissingKey(t *testing.T) {
	r := New()
	m := validFeatures()
	delete(m, "holderCount")
	err := r.Validate(m)
	if err == nil {
		t.Fatal("expected error for 59 keys")
	}
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if len(missing.Names) != 1 || missing.Names[0] != "holderCount" {
		t.Fatalf("missing names = %v, want [holderCount]", missing.Names)
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	r := New()
	m := validFeatures()
	delete(m, "holderCount")
	delete(m, "whaleCount")
	m["bogusOne"] = 1
	m["bogusTwo"] = 2
	m["bogusThree"] = 3

	err := r.Validate(m)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Size == nil || verr.Size.Got != 61 {
		t.Fatalf("size violation not reported: %+v", verr.Size)
	}
	if len(verr.Unknown) != 3 {
		t.Fatalf("unknown = %v, want 3 entries", verr.Unknown)
	}
	if len(verr.Missing) != 2 {
		t.Fatalf("missing = %v, want 2 entries", verr.Missing)
	}
	// Reported names are sorted for stable diagnostics.
	if !sort.StringsAreSorted(verr.Unknown) || !sort.StringsAreSorted(verr.Missing) {
		t.Fatal("violation lists not sorted")
	}
}

func TestGroupCounts(t *testing.T) {
	r := New()
	counts := map[Group]int{}
	for _, f := range r.Fields() {
		counts[f.Group]++
	}
	want := map[Group]int{
		GroupOwnership:    10,
		GroupLiquidity:    12,
		GroupHolders:      10,
		GroupCode:         15,
		GroupTransactions: 8,
		GroupTime:         5,
	}
	for g, n := range want {
		if counts[g] != n {
			t.Errorf("group %s: %d fields, want %d", g, counts[g], n)
		}
	}
}
