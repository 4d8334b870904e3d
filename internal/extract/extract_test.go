package extract

import (
	"context"
	"testing"

	"github.com/NanamiChiaki-7/Notiobsidian/internal/store"
)

func TestEvents(t *testing.T) {
	t.Parallel()
	p := store.Page{
		ID:    7,
		Title: "work",
		Content: "notes...\n" +
			"@2024-01-15 14:00-15:00 [Sprint review|15m]\n" +
			"@2024.02.01 09:30 [Dentist]\n" +
			"@2024-03-10 [All day thing| 1h ]\n",
	}

	events := Events(p)
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}

	first := events[0]
	if first.OriginID != 7 || first.SourcePage != "work" {
		t.Fatalf("provenance: %+v", first)
	}
	if first.Title != "Sprint review" || first.Date != "2024-01-15" ||
		first.Start != "14:00" || first.End != "15:00" || first.Reminder != "15m" {
		t.Fatalf("unexpected event: %+v", first)
	}

	// Dotted dates are normalized; missing range/offset stay empty.
	if events[1].Date != "2024-02-01" || events[1].Start != "09:30" ||
		events[1].End != "" || events[1].Reminder != "" {
		t.Fatalf("unexpected event: %+v", events[1])
	}
	if events[2].Start != "" || events[2].Reminder != "1h" {
		t.Fatalf("unexpected event: %+v", events[2])
	}
}

func TestNotices(t *testing.T) {
	t.Parallel()
	p := store.Page{
		ID:    3,
		Title: "habits",
		Content: "{{notice| daily 08:30 | drink water }}\n" +
			"text {{notice|every 2h|stand up}} more text\n",
	}

	notices := Notices(p)
	if len(notices) != 2 {
		t.Fatalf("len(notices) = %d, want 2", len(notices))
	}
	if notices[0].Condition != "daily 08:30" || notices[0].Content != "drink water" {
		t.Fatalf("unexpected notice: %+v", notices[0])
	}
	if notices[1].PageID != 3 || notices[1].SourcePage != "habits" {
		t.Fatalf("provenance: %+v", notices[1])
	}
}

func TestNoMatches(t *testing.T) {
	t.Parallel()
	p := store.Page{ID: 1, Content: "plain text @ not a date {{notice|unterminated"}
	if got := Events(p); len(got) != 0 {
		t.Fatalf("Events = %+v, want none", got)
	}
	if got := Notices(p); len(got) != 0 {
		t.Fatalf("Notices = %+v, want none", got)
	}
}

type listerFunc func(ctx context.Context) ([]store.Page, error)

type fakeStore struct{ list listerFunc }

func (f fakeStore) ListPages(ctx context.Context) ([]store.Page, error) { return f.list(ctx) }
func (f fakeStore) Close() error                                        { return nil }

func TestPageSourcePull(t *testing.T) {
	t.Parallel()
	src := PageSource{Pages: fakeStore{list: func(ctx context.Context) ([]store.Page, error) {
		return []store.Page{
			{ID: 1, Title: "a", Content: "@2024-01-15 14:00 [x|5m]"},
			{ID: 2, Title: "b", Content: "{{notice|daily 09:00|y}}"},
		}, nil
	}}}

	events, notices, err := src.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if len(events) != 1 || len(notices) != 1 {
		t.Fatalf("events=%d notices=%d, want 1/1", len(events), len(notices))
	}
	if events[0].OriginID != 1 || notices[0].PageID != 2 {
		t.Fatalf("provenance: %+v %+v", events[0], notices[0])
	}
}

func TestPageSourceNilStore(t *testing.T) {
	t.Parallel()
	events, notices, err := PageSource{}.Pull(context.Background())
	if err != nil || events != nil || notices != nil {
		t.Fatalf("Pull on nil store = (%v, %v, %v)", events, notices, err)
	}
}
