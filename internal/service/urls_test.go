package service

import "testing"

func TestURLBuilderFillsPathParams(t *testing.T) {
	b := NewURLBuilder("https://blog.example.com/")

	got := b.Build(RoutePermalink, map[string]string{"slug": "hello-world"})
	if got != "https://blog.example.com/posts/hello-world" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestURLBuilderEscapesPathValues(t *testing.T) {
	b := NewURLBuilder("https://blog.example.com")
	b.Register("archive", "/archive/{label}")

	got := b.Build("archive", map[string]string{"label": "a b"})
	if got != "https://blog.example.com/archive/a%20b" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestURLBuilderAppendsLeftoverParamsAsQuery(t *testing.T) {
	b := NewURLBuilder("https://blog.example.com")

	got := b.Build(RoutePermalink, map[string]string{"slug": "post", "page": "2"})
	if got != "https://blog.example.com/posts/post?page=2" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestURLBuilderUnknownRouteFallsBackToBase(t *testing.T) {
	b := NewURLBuilder("https://blog.example.com")
	if got := b.Build("nope", nil); got != "https://blog.example.com/" {
		t.Fatalf("unexpected url %q", got)
	}
}
