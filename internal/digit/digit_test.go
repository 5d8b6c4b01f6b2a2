package digit

import (
	"math"
	"testing"

	"qentem/internal/sink"
)

func TestParseNumberIntegers(t *testing.T) {
	cases := []struct {
		in       string
		wantKind Kind
		wantU    uint64
		wantI    int64
		consumed int
	}{
		{"0", KindUnsigned, 0, 0, 1},
		{"123", KindUnsigned, 123, 0, 3},
		{"-5", KindSigned, 0, -5, 2},
		{"+5", KindUnsigned, 5, 0, 2},
		{"0x1F", KindUnsigned, 31, 0, 4},
		{"-0x10", KindSigned, 0, -16, 5},
	}
	for _, c := range cases {
		n, consumed, ok := ParseNumber(c.in)
		if !ok {
			t.Fatalf("ParseNumber(%q): expected success", c.in)
		}
		if consumed != c.consumed {
			t.Fatalf("ParseNumber(%q): consumed = %d, want %d", c.in, consumed, c.consumed)
		}
		if n.Kind != c.wantKind {
			t.Fatalf("ParseNumber(%q): kind = %v, want %v", c.in, n.Kind, c.wantKind)
		}
		if n.Kind == KindUnsigned && n.U != c.wantU {
			t.Fatalf("ParseNumber(%q): U = %d, want %d", c.in, n.U, c.wantU)
		}
		if n.Kind == KindSigned && n.I != c.wantI {
			t.Fatalf("ParseNumber(%q): I = %d, want %d", c.in, n.I, c.wantI)
		}
	}
}

func TestParseNumberMalformedRejected(t *testing.T) {
	cases := []string{
		"",
		"-",
		"+",
		"01",   // leading zero other than "0"/"0."
		"1..1", // repeated decimal point
		"1ee1", // repeated exponent marker
		".",    // no integer digits at all
		"e1",   // bare exponent, no leading digits
	}
	for _, in := range cases {
		if _, _, ok := ParseNumber(in); ok {
			t.Fatalf("ParseNumber(%q): expected failure", in)
		}
	}
}

func TestParseNumberStopsAtTrailingGarbage(t *testing.T) {
	n, consumed, ok := ParseNumber("123abc")
	if !ok {
		t.Fatal("expected success parsing leading digits")
	}
	if consumed != 3 || n.U != 123 {
		t.Fatalf("got consumed=%d U=%d, want 3/123", consumed, n.U)
	}
}

func TestParseNumberNegativeZero(t *testing.T) {
	n, _, ok := ParseNumber("-0")
	if !ok {
		t.Fatal("expected success")
	}
	if n.Kind != KindSigned || n.I != 0 {
		t.Fatalf("got kind=%v I=%d, want Signed/0", n.Kind, n.I)
	}
}

func TestParseNumberReal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1.5", 1.5},
		{"-1.5", -1.5},
		{"0.1", 0.1},
		{"1e10", 1e10},
		{"1.5e-3", 1.5e-3},
		{"123456789.123456789", 123456789.123456789},
	}
	for _, c := range cases {
		n, _, ok := ParseNumber(c.in)
		if !ok {
			t.Fatalf("ParseNumber(%q): expected success", c.in)
		}
		if n.Kind != KindReal {
			t.Fatalf("ParseNumber(%q): kind = %v, want Real", c.in, n.Kind)
		}
		if n.F != c.want {
			t.Fatalf("ParseNumber(%q) = %v, want %v", c.in, n.F, c.want)
		}
	}
}

func TestParseNumberSmallFractionsRoundTrip(t *testing.T) {
	// Values whose decimal exponent folds negative through the slow path
	// (dividing by a power of 5), the case bigDivFloor exists to get right.
	cases := []string{"0.001", "0.0001", "0.00001", "3.14159", "2.2250738585072014e-308"}
	for _, in := range cases {
		n, _, ok := ParseNumber(in)
		if !ok {
			t.Fatalf("ParseNumber(%q): expected success", in)
		}
		buf := sink.NewBuffer(32)
		FormatReal(buf, n.F, FormatDefault, 17)
		n2, _, ok := ParseNumber(buf.String())
		if !ok {
			t.Fatalf("re-parsing formatted %q failed", buf.String())
		}
		if n2.F != n.F {
			t.Fatalf("round trip mismatch for %q: %v != %v (formatted %q)", in, n2.F, n.F, buf.String())
		}
	}
}

func TestFormatUint(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{123, "123"},
		{math.MaxUint64, "18446744073709551615"},
	}
	for _, c := range cases {
		buf := sink.NewBuffer(24)
		FormatUint(buf, c.in)
		if buf.String() != c.want {
			t.Fatalf("FormatUint(%d) = %q, want %q", c.in, buf.String(), c.want)
		}
	}
}

func TestFormatInt(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{-5, "-5"},
		{math.MinInt64, "-9223372036854775808"},
	}
	for _, c := range cases {
		buf := sink.NewBuffer(24)
		FormatInt(buf, c.in)
		if buf.String() != c.want {
			t.Fatalf("FormatInt(%d) = %q, want %q", c.in, buf.String(), c.want)
		}
	}
}

func TestFormatRealFixedPrecision(t *testing.T) {
	buf := sink.NewBuffer(32)
	FormatReal(buf, 1.0/3.0, FormatFixed, 4)
	if buf.String() != "0.3333" {
		t.Fatalf("got %q, want 0.3333", buf.String())
	}
}

func TestFormatRealSemiFixedTrimsTrailingZeros(t *testing.T) {
	buf := sink.NewBuffer(32)
	FormatReal(buf, 2.5, FormatSemiFixed, 4)
	if buf.String() != "2.5" {
		t.Fatalf("got %q, want 2.5", buf.String())
	}
}

func TestFormatRealBankersRounding(t *testing.T) {
	// 0.125 rounded to 2 fixed fractional digits: the tie falls exactly on
	// the rounding boundary, where round-half-to-even rounds to 0.12.
	buf := sink.NewBuffer(32)
	FormatReal(buf, 0.125, FormatFixed, 2)
	got := buf.String()
	if got != "0.12" {
		t.Fatalf("got %q, want 0.12 (banker's rounding of an exact tie)", got)
	}
}

func TestFormatRealZero(t *testing.T) {
	buf := sink.NewBuffer(8)
	FormatReal(buf, 0, FormatDefault, 6)
	if buf.String() != "0" {
		t.Fatalf("got %q, want 0", buf.String())
	}
}
