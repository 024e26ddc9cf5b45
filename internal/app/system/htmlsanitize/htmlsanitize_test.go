package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/leadhub/internal/app/system/htmlsanitize"
)

func TestPlainText_Empty(t *testing.T) {
	if got := htmlsanitize.PlainText(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestPlainText_Unchanged(t *testing.T) {
	input := "Called at 5pm, asked for brochure"
	if got := htmlsanitize.PlainText(input); got != input {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestPlainText_RemovesScript(t *testing.T) {
	got := htmlsanitize.PlainText("Hello<script>alert('xss')</script>")
	if got != "Hello" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestPlainText_StripsTagsKeepsText(t *testing.T) {
	got := htmlsanitize.PlainText("<p><strong>Interested</strong> in MBA</p>")
	if got != "Interested in MBA" {
		t.Errorf("expected text content only, got %q", got)
	}
}

func TestPlainText_DecodesEntities(t *testing.T) {
	got := htmlsanitize.PlainText("fees 5 & 10")
	if got != "fees 5 & 10" {
		t.Errorf("expected ampersand preserved, got %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"Hello, World!", true},
		{"<p>Hello</p>", false},
		{"5 < 10", true},
		{"5 > 3", true},
	}
	for _, tt := range tests {
		if got := htmlsanitize.IsPlainText(tt.input); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
