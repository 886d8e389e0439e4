package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"script dropped with its body", `<script>alert('xss')</script>Hello world`, "Hello world"},
		{"tags become spaces", `<p>Hello <b>world</b></p>`, " Hello  world "},
		{"event handler attribute", `<p onclick="steal()">Safe text</p>`, " Safe text "},
		{"image with onerror", `<img src=x onerror=alert(1)>hi`, " hi"},
		{"plain text untouched", "Looking for a Go mentor", "Looking for a Go mentor"},
		{"markdown untouched", "# Plan\n**week 1** [repo](http://example.com)", "# Plan\n**week 1** [repo](http://example.com)"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<")
			assert.NotContains(t, got, ">")
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"wrapping tag", "<p>hi</p>", "hi"},
		{"adjacent inline tags", "<b>a</b> <b>b</b>", "a b"},
		{"outer whitespace", "  <p>Hello</p>  ", "Hello"},
		{"script removed", `  <script>alert('xss')</script>Hello world  `, "Hello world"},
		{"nested markup", "<div><p>Hello <b>world</b></p><br><a href='#'>link</a></div>", "Hello world link"},
		{"entities unescaped", "Tom &amp; Jerry's <i>notes</i>", "Tom & Jerry's notes"},
		{"non-breaking spaces", "a&nbsp;&nbsp;b", "a b"},
		{"line breaks kept", "  # Heading\n**bold**   text  ", "# Heading\n**bold** text"},
		{"only markup", "<br><hr>", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestClean_ChatMessage(t *testing.T) {
	in := "Hi <b>mentor</b> there,\n  can we   meet <img src=x onerror=alert(1)>tomorrow?"
	assert.Equal(t, "Hi mentor there,\ncan we meet tomorrow?", Clean(in))
}
