// Package docsource fetches the two parallel representations of the source
// document for an ingestion run: plain text for the line heuristics and HTML
// markup for the anchor fallback.
package docsource

import (
	"context"
	"fmt"
)

// Export holds both representations of one document fetch. The whole run is
// parsed from this single snapshot.
type Export struct {
	Text   string
	Markup string
}

// Source fetches a document by identifier. A fetch failure is fatal to the
// ingestion run that requested it.
type Source interface {
	Fetch(ctx context.Context, docID string) (Export, error)
}

// FetchError reports an unreachable or unauthorized document.
type FetchError struct {
	DocID  string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch document %s: status %d: %v", e.DocID, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch document %s: %v", e.DocID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the failure looks like a credential problem.
func (e *FetchError) Unauthorized() bool {
	return e.Status == 401 || e.Status == 403
}
