package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/NanamiChiaki-7/Notiobsidian/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "none"}, logx.Nop())
	if err != nil || st != nil {
		t.Fatalf("Open(none) = (%v, %v), want (nil, nil)", st, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestListPages(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)

	db := st.(*sqliteStore).db
	seed := func(title, content string) {
		t.Helper()
		if _, err := db.Exec(`INSERT INTO page(title, content) VALUES(?, ?)`, title, content); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	seed("inbox", "@2024-01-15 14:00 [standup|15m]")
	seed("habits", "{{notice|daily 08:00|drink water}}")

	pages, err := st.ListPages(context.Background())
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("len(pages) = %d, want 2", len(pages))
	}
	if pages[0].Title != "inbox" || pages[1].Title != "habits" {
		t.Fatalf("unexpected order/titles: %+v", pages)
	}
	if pages[0].ID == 0 || pages[1].ID == 0 {
		t.Fatal("expected non-zero page ids")
	}
}

func TestListPagesNullContent(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	db := st.(*sqliteStore).db
	if _, err := db.Exec(`INSERT INTO page(id, title, content) VALUES(1, ?, ?)`, "t", sql.NullString{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pages, err := st.ListPages(context.Background())
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(pages) != 1 || pages[0].Content != "" {
		t.Fatalf("unexpected pages: %+v", pages)
	}
}
