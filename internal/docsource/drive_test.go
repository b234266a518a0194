package docsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDriveSource_FetchBothRepresentations(t *testing.T) {
	t.Parallel()

	var gotAuth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))

		if r.URL.Path != "/files/doc-123/export" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		switch r.URL.Query().Get("mimeType") {
		case "text/plain":
			w.Write([]byte("plain body"))
		case "text/html":
			w.Write([]byte("<html>markup body</html>"))
		default:
			t.Errorf("unexpected mime type: %q", r.URL.Query().Get("mimeType"))
		}
	}))
	defer server.Close()

	source := NewDriveSource(server.Client(), "tok-1").WithBaseURL(server.URL)

	export, err := source.Fetch(context.Background(), "doc-123")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if export.Text != "plain body" {
		t.Fatalf("unexpected text export: %q", export.Text)
	}
	if export.Markup != "<html>markup body</html>" {
		t.Fatalf("unexpected markup export: %q", export.Markup)
	}

	if len(gotAuth) != 2 {
		t.Fatalf("expected 2 export requests, got %d", len(gotAuth))
	}
	for _, auth := range gotAuth {
		if auth != "Bearer tok-1" {
			t.Fatalf("unexpected authorization header: %q", auth)
		}
	}
}

func TestDriveSource_ForbiddenIsUnauthorized(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	source := NewDriveSource(server.Client(), "expired").WithBaseURL(server.URL)

	_, err := source.Fetch(context.Background(), "doc-123")
	if err == nil {
		t.Fatal("expected fetch failure")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if !fetchErr.Unauthorized() {
		t.Fatalf("403 must report unauthorized, got status %d", fetchErr.Status)
	}
}

func TestDriveSource_EmptyDocID(t *testing.T) {
	t.Parallel()

	source := NewDriveSource(nil, "tok")
	if _, err := source.Fetch(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty document id")
	}
}
