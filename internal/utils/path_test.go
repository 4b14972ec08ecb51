package utils

import (
	"path/filepath"
	"testing"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "empty path",
			input:     "",
			wantError: true,
		},
		{
			name:      "relative path",
			input:     "./test",
			wantError: false,
		},
		{
			name:      "absolute path",
			input:     "/tmp/test",
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ResolvePath(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ResolvePath(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && result == "" {
				t.Errorf("ResolvePath(%q) returned empty string", tt.input)
			}
		})
	}
}

func TestSafeJoin(t *testing.T) {
	base := filepath.Join("/", "data", "saves")

	tests := []struct {
		name      string
		elems     []string
		wantError bool
	}{
		{
			name:  "plain name",
			elems: []string{"a.txt"},
		},
		{
			name:  "nested relative path",
			elems: []string{"sub", "b.txt"},
		},
		{
			name:  "dot segments collapsing inside base",
			elems: []string{"sub", "..", "a.txt"},
		},
		{
			name:      "parent escape",
			elems:     []string{"..", "etc", "passwd"},
			wantError: true,
		},
		{
			name:      "deep escape via dotdot",
			elems:     []string{"sub", "..", "..", "..", "x"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoin(base, tt.elems...)
			if (err != nil) != tt.wantError {
				t.Fatalf("SafeJoin(%v) error = %v, wantError %v", tt.elems, err, tt.wantError)
			}
			if err == nil && !filepath.IsAbs(got) {
				t.Errorf("SafeJoin(%v) = %q, want absolute path", tt.elems, got)
			}
		})
	}
}
