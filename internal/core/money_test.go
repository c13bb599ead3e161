package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"5000", 500000, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // rounds up
		{".5", 50, true},
		{"", 0, false},
		{"-3", 0, false},
		{"+3", 0, false},
		{"0", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseDecimalToCents(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseDecimalToCents(%q) expected error", tc.in)
		}
	}
}

func TestParseNonNegativeCents(t *testing.T) {
	got, err := ParseNonNegativeCents("0")
	if err != nil || got != 0 {
		t.Fatalf("zero bill should parse: got %d, %v", got, err)
	}
	got, err = ParseNonNegativeCents("150")
	if err != nil || got != 15000 {
		t.Fatalf("got %d, %v; want 15000", got, err)
	}
	if _, err := ParseNonNegativeCents("-1"); err == nil {
		t.Fatal("negative bill should fail")
	}
}

func TestMoneyRupees(t *testing.T) {
	if got := (Money{Cents: 1234}).Rupees(); got != 12.34 {
		t.Fatalf("Rupees() = %v, want 12.34", got)
	}
}
