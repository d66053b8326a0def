package store

import (
	"strings"
	"testing"

	"blogapi/models"
)

func TestValidateCommentText(t *testing.T) {
	tests := []struct {
		name string
		text string
		ok   bool
	}{
		{name: "too short", text: "ab", ok: false},
		{name: "minimum length", text: "abc", ok: true},
		{name: "maximum length", text: strings.Repeat("x", 1000), ok: true},
		{name: "over maximum", text: strings.Repeat("x", 1001), ok: false},
		{name: "empty", text: "", ok: false},
		{name: "multibyte runes counted once", text: "日本語", ok: true},
	}

	for _, tt := range tests {
		err := validateCommentText(tt.text)
		if tt.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !tt.ok && !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tt.name, err)
		}
	}
}

func TestAnonymousName(t *testing.T) {
	if got := anonymousName(false); got != nil {
		t.Fatalf("anonymousName(false) = %v, want nil", got)
	}
	got := anonymousName(true)
	if got == nil || *got != models.AnonymousDisplayName {
		t.Fatalf("anonymousName(true) = %v, want %q", got, models.AnonymousDisplayName)
	}
}
