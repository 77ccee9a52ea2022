package util

import (
	"errors"
	"testing"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"50MB", 50_000_000, false},
		{"50 MiB", 50 * 1024 * 1024, false},
		{"1024", 1024, false},
		{"", 0, true},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBytes(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("ParseBytes(%q) error = %v, want ErrInvalidConfig", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBytes(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	if lvl, err := ParseLogLevel("DEBUG"); err != nil || lvl != LevelDebug {
		t.Errorf("ParseLogLevel(DEBUG) = %v, %v", lvl, err)
	}
	if lvl, err := ParseLogLevel(""); err != nil || lvl != LevelInfo {
		t.Errorf("ParseLogLevel(\"\") = %v, %v", lvl, err)
	}
	if _, err := ParseLogLevel("loud"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseLogLevel(loud) error = %v, want ErrInvalidConfig", err)
	}
}
