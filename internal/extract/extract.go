// Package extract pulls reminder rules out of free-text page content.
//
// Two inline markups are recognized:
//
//	@2024-01-15 14:00-15:00 [Sprint review|15m]   calendar event
//	{{notice|daily 08:30|drink water}}            standing notice
//
// The event date accepts "." or "-" separators; the time range and the
// trailing |offset are optional. Everything else in the page is ignored.
package extract

import (
	"regexp"
	"strings"

	"github.com/NanamiChiaki-7/Notiobsidian/internal/reminder"
	"github.com/NanamiChiaki-7/Notiobsidian/internal/store"
)

var (
	eventRe  = regexp.MustCompile(`@(\d{4}[.\-]\d{2}[.\-]\d{2})(?:\s+(\d{1,2}:\d{2})(?:-(\d{1,2}:\d{2}))?)?\s*\[([^\]|]*)(?:\|([^\]]*))?\]`)
	noticeRe = regexp.MustCompile(`\{\{notice\|([^|}]*)\|([^}]*)\}\}`)
)

// Events returns every calendar event embedded in the page.
func Events(p store.Page) []reminder.Event {
	var events []reminder.Event
	for _, m := range eventRe.FindAllStringSubmatch(p.Content, -1) {
		date := strings.ReplaceAll(m[1], ".", "-")
		events = append(events, reminder.Event{
			OriginID:   p.ID,
			Title:      m[4],
			Date:       date,
			Start:      m[2],
			End:        m[3],
			SourcePage: p.Title,
			Reminder:   strings.TrimSpace(m[5]),
		})
	}
	return events
}

// Notices returns every notice rule embedded in the page.
func Notices(p store.Page) []reminder.Notice {
	var notices []reminder.Notice
	for _, m := range noticeRe.FindAllStringSubmatch(p.Content, -1) {
		notices = append(notices, reminder.Notice{
			PageID:     p.ID,
			SourcePage: p.Title,
			Condition:  strings.TrimSpace(m[1]),
			Content:    strings.TrimSpace(m[2]),
		})
	}
	return notices
}
