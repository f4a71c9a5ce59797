package steam

import (
	"math"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1 234,56 руб.", 1234.56},
		{"1 234,56 руб.", 1234.56}, // non-breaking space separator
		{"$12.50", 12.5},
		{"123,45", 123.45},
		{"42 руб.", 42},
		{"", 0},
		{"abc", 0},
		{"руб.", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParsePrice(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"52", 52, false},
		{"1,410", 1410, false},
		{"1,234,567", 1234567, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseVolume(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVolume(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseVolume(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
