package parser

import "testing"

func TestExtractAnchors(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
<p>Intro text</p>
<a href="https://www.example.com/one">First story</a>
<a href="https://example.org/two">Second story</a>
<a href="https://example.net/three">Third story</a>
<a href="">No target</a>
<a href="https://example.com/hidden"> </a>
</body></html>`

	drafts, err := ExtractAnchors(markup)
	if err != nil {
		t.Fatalf("ExtractAnchors failed: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(drafts))
	}
	if drafts[0].Title != "First story" {
		t.Fatalf("unexpected title: %q", drafts[0].Title)
	}
	if drafts[0].SourceDomain != "example.com" {
		t.Fatalf("unexpected domain: %q", drafts[0].SourceDomain)
	}
}

func TestExtractAnchors_NoLinks(t *testing.T) {
	t.Parallel()

	drafts, err := ExtractAnchors("<html><body><p>nothing clickable</p></body></html>")
	if err != nil {
		t.Fatalf("ExtractAnchors failed: %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("expected no drafts, got %d", len(drafts))
	}
}
