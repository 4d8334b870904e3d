package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NanamiChiaki-7/Notiobsidian/pkg/logx"
)

type fakeSource struct {
	mu      sync.Mutex
	events  []Event
	notices []Notice
	err     error
	pulls   int
}

func (f *fakeSource) Pull(ctx context.Context) ([]Event, []Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return append([]Event(nil), f.events...), append([]Notice(nil), f.notices...), nil
}

func (f *fakeSource) pullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls
}

type fakeSink struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakeSink) Broadcast(payload []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, append([]byte(nil), payload...))
	return 1
}

func (f *fakeSink) sent() []notificationMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notificationMsg, 0, len(f.payloads))
	for _, p := range f.payloads {
		var m notificationMsg
		if err := json.Unmarshal(p, &m); err != nil {
			panic(err)
		}
		out = append(out, m)
	}
	return out
}

func newTestService(src Source, sink Sink) *Service {
	return New(Config{Enabled: true}, src, sink, logx.Nop(), nil)
}

func localTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	if err != nil {
		t.Fatalf("bad test time %q: %v", s, err)
	}
	return ts
}

func TestCheckFiresEventInsideLeadWindow(t *testing.T) {
	t.Parallel()
	src := &fakeSource{events: []Event{
		{OriginID: 7, Title: "standup", Date: "2024-01-15", Start: "14:00", SourcePage: "work", Reminder: "15m"},
	}}
	sink := &fakeSink{}
	s := newTestService(src, sink)

	s.check(context.Background(), localTime(t, "2024-01-15 13:50:00"))

	msgs := sink.sent()
	if len(msgs) != 1 {
		t.Fatalf("sent = %d, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Type != "notification" {
		t.Fatalf("Type = %q", m.Type)
	}
	if m.Data.Title != "📅 standup" {
		t.Fatalf("Title = %q", m.Data.Title)
	}
	if m.Data.URL != "/p/7" {
		t.Fatalf("URL = %q", m.Data.URL)
	}
	if !strings.Contains(m.Data.Body, "15m") {
		t.Fatalf("Body = %q, want lead time mentioned", m.Data.Body)
	}
	if m.Data.ID == "" || m.Data.Timestamp == "" {
		t.Fatalf("missing id/timestamp: %+v", m.Data)
	}
}

func TestCheckSkipsEventOutsideWindow(t *testing.T) {
	t.Parallel()
	src := &fakeSource{events: []Event{
		{OriginID: 7, Title: "standup", Date: "2024-01-15", Start: "14:00", Reminder: "15m"},
	}}
	sink := &fakeSink{}
	s := newTestService(src, sink)

	for _, now := range []string{"2024-01-15 13:44:59", "2024-01-15 14:00:00", "2024-01-16 13:50:00"} {
		s.check(context.Background(), localTime(t, now))
	}
	if got := len(sink.sent()); got != 0 {
		t.Fatalf("sent = %d, want 0", got)
	}
}

func TestCheckEventWithoutReminderNeverFires(t *testing.T) {
	t.Parallel()
	src := &fakeSource{events: []Event{
		{OriginID: 1, Title: "party", Date: "2024-01-15", Start: "14:00"},
	}}
	sink := &fakeSink{}
	s := newTestService(src, sink)

	s.check(context.Background(), localTime(t, "2024-01-15 13:50:00"))
	if got := len(sink.sent()); got != 0 {
		t.Fatalf("sent = %d, want 0", got)
	}
}

func TestCheckFiresNoticeWithSourceBody(t *testing.T) {
	t.Parallel()
	src := &fakeSource{notices: []Notice{
		{PageID: 3, SourcePage: "habits", Condition: "daily 08:30", Content: "drink water"},
		{PageID: 4, Condition: "daily 08:30", Content: "stretch"},
	}}
	sink := &fakeSink{}
	s := newTestService(src, sink)

	s.check(context.Background(), localTime(t, "2024-01-15 08:30:00"))

	msgs := sink.sent()
	if len(msgs) != 2 {
		t.Fatalf("sent = %d, want 2", len(msgs))
	}
	if msgs[0].Data.Title != "🔔 drink water" || msgs[0].Data.Body != "from: habits" {
		t.Fatalf("unexpected first notice: %+v", msgs[0].Data)
	}
	if msgs[1].Data.Body != "from: system" {
		t.Fatalf("missing source fallback: %+v", msgs[1].Data)
	}
}

func TestCheckOrderIsEventsThenNotices(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		events: []Event{
			{OriginID: 1, Title: "first", Date: "2024-01-15", Start: "09:00", Reminder: "30m"},
			{OriginID: 2, Title: "second", Date: "2024-01-15", Start: "09:00", Reminder: "30m"},
		},
		notices: []Notice{
			{PageID: 3, Condition: "every 1m", Content: "third"},
		},
	}
	sink := &fakeSink{}
	s := newTestService(src, sink)

	s.check(context.Background(), localTime(t, "2024-01-15 08:45:00"))

	msgs := sink.sent()
	if len(msgs) != 3 {
		t.Fatalf("sent = %d, want 3", len(msgs))
	}
	want := []string{"📅 first", "📅 second", "🔔 third"}
	for i, w := range want {
		if msgs[i].Data.Title != w {
			t.Fatalf("msgs[%d].Title = %q, want %q", i, msgs[i].Data.Title, w)
		}
	}
}

func TestCheckDeduplicatesWithinMinute(t *testing.T) {
	t.Parallel()
	src := &fakeSource{notices: []Notice{
		{PageID: 1, Condition: "daily 08:30", Content: "once"},
	}}
	sink := &fakeSink{}
	s := newTestService(src, sink)

	// A forced pass racing the scheduled tick: same minute, one delivery.
	s.check(context.Background(), localTime(t, "2024-01-15 08:30:00"))
	s.check(context.Background(), localTime(t, "2024-01-15 08:30:00"))
	if got := len(sink.sent()); got != 1 {
		t.Fatalf("sent = %d, want 1", got)
	}

	// Next day is a new identity.
	s.check(context.Background(), localTime(t, "2024-01-16 08:30:00"))
	if got := len(sink.sent()); got != 2 {
		t.Fatalf("sent = %d, want 2", got)
	}
}

func TestCheckBadRuleDoesNotAbortTick(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		events: []Event{
			{OriginID: 1, Title: "broken", Date: "not-a-date", Start: "xx:yy", Reminder: "15m"},
		},
		notices: []Notice{
			{PageID: 2, Condition: "daily 08:30", Content: "still fires"},
		},
	}
	sink := &fakeSink{}
	s := newTestService(src, sink)

	s.check(context.Background(), localTime(t, "2024-01-15 08:30:00"))
	msgs := sink.sent()
	if len(msgs) != 1 || msgs[0].Data.Title != "🔔 still fires" {
		t.Fatalf("unexpected msgs: %+v", msgs)
	}
}

func TestCheckPullErrorFailsOpen(t *testing.T) {
	t.Parallel()
	src := &fakeSource{err: errors.New("db locked")}
	sink := &fakeSink{}
	s := newTestService(src, sink)
	s.AddNotices([]Notice{{PageID: 9, Condition: "daily 08:30", Content: "live"}})

	s.check(context.Background(), localTime(t, "2024-01-15 08:30:00"))

	// The pulled half is empty this tick, but live-pushed rules still run.
	msgs := sink.sent()
	if len(msgs) != 1 || msgs[0].Data.Title != "🔔 live" {
		t.Fatalf("unexpected msgs: %+v", msgs)
	}
}

func TestLivePushedRecordsSurviveAndMerge(t *testing.T) {
	t.Parallel()
	src := &fakeSource{}
	sink := &fakeSink{}
	s := newTestService(src, sink)

	s.AddEvents([]Event{{OriginID: 5, Title: "live evt", Date: "2024-01-15", Start: "10:00", Reminder: "10m"}})
	s.AddNotices([]Notice{{PageID: 6, Condition: "daily 09:55", Content: "live note"}})

	s.check(context.Background(), localTime(t, "2024-01-15 09:55:00"))
	msgs := sink.sent()
	if len(msgs) != 2 {
		t.Fatalf("sent = %d, want 2", len(msgs))
	}
	if msgs[0].Data.Title != "📅 live evt" || msgs[1].Data.Title != "🔔 live note" {
		t.Fatalf("unexpected titles: %q, %q", msgs[0].Data.Title, msgs[1].Data.Title)
	}
}

func TestLiveListsAreCapped(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, MaxLiveRecords: 3}, &fakeSource{}, &fakeSink{}, logx.Nop(), nil)

	for i := int64(0); i < 10; i++ {
		s.AddNotices([]Notice{{PageID: i, Condition: "never", Content: "n"}})
	}
	s.lmu.Lock()
	defer s.lmu.Unlock()
	if len(s.liveNotices) != 3 {
		t.Fatalf("liveNotices = %d, want 3", len(s.liveNotices))
	}
	if s.liveNotices[0].PageID != 7 {
		t.Fatalf("oldest kept = %d, want 7", s.liveNotices[0].PageID)
	}
}
