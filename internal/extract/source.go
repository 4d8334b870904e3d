package extract

import (
	"context"

	"github.com/NanamiChiaki-7/Notiobsidian/internal/reminder"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/store"
)

// PageSource adapts the page store into the scheduler's pull interface:
// every call re-reads all pages and re-extracts their rules, so the pulled
// half of the rule set is never stale.
type PageSource struct {
	Pages store.Store
}

func (s PageSource) Pull(ctx context.Context) ([]reminder.Event, []reminder.Notice, error) {
	if s.Pages == nil {
		return nil, nil, nil
	}
	pages, err := s.Pages.ListPages(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		events  []reminder.Event
		notices []reminder.Notice
	)
	for _, p := range pages {
		events = append(events, Events(p)...)
		notices = append(notices, Notices(p)...)
	}
	return events, notices, nil
}
