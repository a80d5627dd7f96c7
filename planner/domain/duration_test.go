package domain

import (
	"testing"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		literal string
		want    int64
		wantErr bool
	}{
		{"PT0S", 0, false},
		{"PT30S", 30, false},
		{"PT1M", 60, false},
		{"PT1H30M", 5400, false},
		{"P1D", 86400, false},
		{"P1DT2H3M4S", 93784, false},
		{"PT1.5M", 90, false},
		{"PT0.5S", 0, false}, // sub-second truncates
		{"PT2,5H", 9000, false},
		{"", 0, true},
		{"P", 0, true},
		{"T1S", 0, true},
		{"PT", 0, true},
		{"PT1X", 0, true},
		{"P1H", 0, true},  // hours need the T designator
		{"PT1D", 0, true}, // days precede the T designator
		{"PT1.S", 0, true},
		{"PT-1S", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			got, err := ParseDuration(tt.literal)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDuration(%q) = %d, want error", tt.literal, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q): %v", tt.literal, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.literal, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "PT0S"},
		{30, "PT30S"},
		{60, "PT1M"},
		{5400, "PT1H30M"},
		{86400, "P1D"},
		{93784, "P1DT2H3M4S"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestDurationLiteralRoundTrip(t *testing.T) {
	// literal → seconds → literal is the identity on canonical forms.
	canonical := []string{"PT0S", "PT45S", "PT2M", "PT1H", "PT1H30M", "P2D", "P1DT2H3M4S", "P3DT12H"}
	for _, lit := range canonical {
		secs, err := ParseDuration(lit)
		if err != nil {
			t.Fatalf("ParseDuration(%q): %v", lit, err)
		}
		if got := FormatDuration(secs); got != lit {
			t.Errorf("%q → %d → %q", lit, secs, got)
		}
	}
}

func TestDurationSpecValidate(t *testing.T) {
	if err := Fixed(10).Validate(); err != nil {
		t.Errorf("Fixed(10): %v", err)
	}
	if err := Fixed(-1).Validate(); err == nil {
		t.Error("negative fixed duration must fail")
	}
	if err := Variable(2, 5).Validate(); err != nil {
		t.Errorf("Variable(2,5): %v", err)
	}
	if err := Variable(5, 2).Validate(); err == nil {
		t.Error("min > max must fail")
	}
	if err := Variable(-1, 2).Validate(); err == nil {
		t.Error("negative min must fail")
	}
	if err := (DurationSpec{Kind: ConditionalDuration}).Validate(); err == nil {
		t.Error("conditional without resolver must fail")
	}
	if err := (DurationSpec{}).Validate(); err != nil {
		t.Errorf("zero value (instantaneous) should validate: %v", err)
	}
}

func TestDurationWindow(t *testing.T) {
	w, err := Fixed(10).Window()
	if err != nil || !w.Contains(10) || w.Contains(9) {
		t.Errorf("Fixed(10).Window() = %s, %v", w, err)
	}
	w, err = Variable(2, 5).Window()
	if err != nil || !w.Contains(2) || !w.Contains(5) || w.Contains(6) {
		t.Errorf("Variable(2,5).Window() = %s, %v", w, err)
	}
	if _, err := (DurationSpec{}).Window(); err == nil {
		t.Error("instantaneous spec has no window")
	}
}
