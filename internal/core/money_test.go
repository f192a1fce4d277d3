package core

import "testing"

func TestParseFrancs(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"900000", 900000, true},
		{"1 000 000", 1000000, true},
		{"1.000.000", 1000000, true},
		{"0", 0, true},
		{"1250,5", 1251, true}, // half away from zero
		{"1250,4", 1250, true},
		{"1250.75", 1251, true},
		{" 50000 ", 50000, true},
		{"-100", 0, false},
		{"+100", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseFrancs(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatFrancs(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1 000"},
		{1000000, "1 000 000"},
		{-45000, "-45 000"},
	}
	for _, tc := range cases {
		if got := FormatFrancs(tc.in); got != tc.want {
			t.Fatalf("FormatFrancs(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
