package dedup

import (
	"testing"
	"time"
)

type record struct {
	url  string
	date time.Time
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func collapse(items []record) []record {
	return CollapseByURL(items,
		func(r record) string { return r.url },
		func(r record) time.Time { return r.date },
	)
}

func TestCollapseByURL_KeepsMostRecent(t *testing.T) {
	t.Parallel()

	items := []record{
		{url: "A", date: day(2024, time.January, 1)},
		{url: "A", date: day(2024, time.February, 1)},
		{url: "B", date: day(2024, time.January, 15)},
	}

	out := collapse(items)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].url != "A" || !out[0].date.Equal(day(2024, time.February, 1)) {
		t.Fatalf("expected A to keep the February entry, got %+v", out[0])
	}
	if out[1].url != "B" || !out[1].date.Equal(day(2024, time.January, 15)) {
		t.Fatalf("unexpected B entry: %+v", out[1])
	}
}

func TestCollapseByURL_OrderIndependentResult(t *testing.T) {
	t.Parallel()

	items := []record{
		{url: "A", date: day(2024, time.February, 1)},
		{url: "B", date: day(2024, time.January, 15)},
		{url: "A", date: day(2024, time.January, 1)},
	}

	out := collapse(items)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if !out[0].date.Equal(day(2024, time.February, 1)) {
		t.Fatalf("more recent entry must survive regardless of input order, got %+v", out[0])
	}
}

func TestCollapseByURL_FirstSeenWinsTies(t *testing.T) {
	t.Parallel()

	first := record{url: "A", date: day(2024, time.March, 1)}
	second := record{url: "A", date: day(2024, time.March, 1)}

	out := collapse([]record{first, second})
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0] != first {
		t.Fatalf("tie must keep the first-seen entry, got %+v", out[0])
	}
}

func TestCollapseByURL_Empty(t *testing.T) {
	t.Parallel()

	if out := collapse(nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %d", len(out))
	}
}
