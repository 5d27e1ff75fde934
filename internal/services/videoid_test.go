package services

import (
	"testing"

	"ytscript-backend/internal/apperr"
)

func TestResolveVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=1", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ#t=10", "dQw4w9WgXcQ"},
		{"  https://youtu.be/abc123XYZ_-  ", "abc123XYZ_-"},
	}

	for _, tt := range tests {
		got, err := ResolveVideoID(tt.url)
		if err != nil {
			t.Fatalf("ResolveVideoID(%q) unexpected error: %v", tt.url, err)
		}
		if got != tt.want {
			t.Errorf("ResolveVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestResolveVideoID_Rejects(t *testing.T) {
	for _, url := range []string{"", "not a url", "https://vimeo.com/12345", "https://youtube.com/watch?list=PL1"} {
		_, err := ResolveVideoID(url)
		if err == nil {
			t.Fatalf("expected error for %q", url)
		}
		if apperr.CodeOf(err) != apperr.CodeValidation {
			t.Fatalf("expected validation code for %q, got %s", url, apperr.CodeOf(err))
		}
	}
}
