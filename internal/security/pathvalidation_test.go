package security

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestJoinWithin(t *testing.T) {
	tests := []struct {
		name      string
		dir       string
		file      string
		want      string
		wantError bool
	}{
		{"plain file", "Output", "SB25rAll_boots_accuracy.csv", filepath.Join("Output", "SB25rAll_boots_accuracy.csv"), false},
		{"nested file", "Output", "plots/a.png", filepath.Join("Output", "plots", "a.png"), false},
		{"dot dir", ".", "a.csv", "a.csv", false},
		{"traversal", "Output", "../etc/passwd", "", true},
		{"traversal after clean", "Output", "plots/../../x.csv", "", true},
		{"absolute", "Output", "/etc/passwd", "", true},
		{"empty", "Output", "", "", true},
		{"dir itself", "Output", ".", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinWithin(tt.dir, tt.file)
			if (err != nil) != tt.wantError {
				t.Fatalf("JoinWithin(%q, %q) error = %v, wantError %v", tt.dir, tt.file, err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("JoinWithin(%q, %q) = %q, want %q", tt.dir, tt.file, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SB25rAll", "SB25rAll"},
		{"", "unknown"},
		{"../../etc", "etc"},
		{"crop data/2025", "crop_data_2025"},
		{"a  b", "a_b"},
		{"___", "unknown"},
		{"v1.2-rc", "v1.2-rc"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := SanitizeFilename(strings.Repeat("x", 300))
	if len(long) > 128 {
		t.Errorf("expected length <= 128, got %d", len(long))
	}
}
