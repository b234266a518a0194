package docsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultDriveBaseURL = "https://www.googleapis.com/drive/v3"

// DriveSource exports a Google Doc through the Drive files.export endpoint,
// once as text/plain and once as text/html.
type DriveSource struct {
	client  *http.Client
	token   string
	baseURL string
}

// NewDriveSource wires an HTTP client; a nil client gets a 30s timeout.
func NewDriveSource(client *http.Client, token string) *DriveSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &DriveSource{
		client:  client,
		token:   strings.TrimSpace(token),
		baseURL: defaultDriveBaseURL,
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (s *DriveSource) WithBaseURL(baseURL string) *DriveSource {
	s.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return s
}

// Fetch exports both representations before any parsing begins; either
// export failing fails the fetch as a whole.
func (s *DriveSource) Fetch(ctx context.Context, docID string) (Export, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return Export{}, &FetchError{DocID: docID, Err: errors.New("document id is empty")}
	}

	text, err := s.export(ctx, docID, "text/plain")
	if err != nil {
		return Export{}, err
	}

	markup, err := s.export(ctx, docID, "text/html")
	if err != nil {
		return Export{}, err
	}

	return Export{Text: text, Markup: markup}, nil
}

func (s *DriveSource) export(ctx context.Context, docID, mimeType string) (string, error) {
	endpoint := fmt.Sprintf("%s/files/%s/export?mimeType=%s", s.baseURL, url.PathEscape(docID), url.QueryEscape(mimeType))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &FetchError{DocID: docID, Err: fmt.Errorf("build request: %w", err)}
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &FetchError{DocID: docID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{DocID: docID, Status: resp.StatusCode, Err: fmt.Errorf("export %s failed", mimeType)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{DocID: docID, Err: fmt.Errorf("read export body: %w", err)}
	}

	return string(body), nil
}
