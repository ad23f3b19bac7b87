package models

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "hello", "hello"},
		{"uppercase", "Hello World", "hello-world"},
		{"underscores", "my_doc_name", "my-doc-name"},
		{"special chars stripped", "Hello, World!", "hello-world"},
		{"numbers preserved", "mix-v2.1", "mix-v21"},
		{"mixed", "Late Night_Focus (v3)", "late-night-focus-v3"},
		{"empty string", "", ""},
		{"only special chars", "!@#$%", ""},
		{"consecutive spaces", "hello   world", "hello-world"},
		{"trailing dashes", "--rain--", "rain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			if got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugifyTruncatesAtWordBoundary(t *testing.T) {
	in := strings.Repeat("ambient rain ", 12)
	got := Slugify(in)

	if len(got) > maxSlugLength {
		t.Fatalf("len = %d, want <= %d", len(got), maxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug %q ends with a dash", got)
	}
	for _, word := range strings.Split(got, "-") {
		if word != "ambient" && word != "rain" {
			t.Errorf("slug %q contains a cut word %q", got, word)
		}
	}
}
