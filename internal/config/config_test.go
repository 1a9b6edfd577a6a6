package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewMintsAndPersistsSessionID(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.SessionID() == "" {
		t.Fatal("expected a session id on first run")
	}

	again, err := New(dir)
	if err != nil {
		t.Fatalf("New (second): %v", err)
	}
	if again.SessionID() != c.SessionID() {
		t.Fatalf("session id changed across restarts: %s vs %s", again.SessionID(), c.SessionID())
	}
}

func TestLoadParsesExistingYaml(t *testing.T) {
	dir := t.TempDir()
	yaml := strings.TrimSpace(`
version: 1
api_base_url: http://boards.internal:9000
dark_mode: false
session_id: fixed-session
last_briefing: "2026-08-29"
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.APIBaseURL() != "http://boards.internal:9000" {
		t.Fatalf("api base = %s", c.APIBaseURL())
	}
	if c.DarkMode() {
		t.Fatal("dark mode should be off per file")
	}
	if c.SessionID() != "fixed-session" {
		t.Fatalf("session id = %s, want fixed-session", c.SessionID())
	}
}

func TestBriefingRunsAtMostOncePerDay(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	if !c.ShouldBrief(day) {
		t.Fatal("fresh config must want a briefing")
	}
	if err := c.MarkBriefed(day); err != nil {
		t.Fatalf("MarkBriefed: %v", err)
	}
	if c.ShouldBrief(day.Add(6 * time.Hour)) {
		t.Fatal("same calendar day must not brief twice")
	}
	if !c.ShouldBrief(day.AddDate(0, 0, 1)) {
		t.Fatal("the next day must brief again")
	}

	// Stamp survives a reload.
	re, err := New(dir)
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	if re.ShouldBrief(day) {
		t.Fatal("briefing stamp must persist")
	}
}

func TestSetDarkModePersists(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.SetDarkMode(false); err != nil {
		t.Fatalf("SetDarkMode: %v", err)
	}
	re, err := New(dir)
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	if re.DarkMode() {
		t.Fatal("dark mode flag must persist")
	}
}
