package loghandler

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

var stamp = regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} `)

func TestCompactFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	log.Info("player joined", "tag", "match", "player", 2)

	line := buf.String()
	if !stamp.MatchString(line) {
		t.Fatalf("missing timestamp: %q", line)
	}
	if got := stamp.ReplaceAllString(line, ""); got != "[match] player joined player=2\n" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestLevelFilterAndLabel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %q", buf.String())
	}
	log.Warn("slow client", "tag", "ws")
	if !strings.Contains(buf.String(), "[ws] WARN slow client") {
		t.Errorf("expected warn label, got %q", buf.String())
	}
}

func TestWithAttrsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo)).With("tag", "match", "match", "m-1")

	log.Info("match started", "players", 3)

	got := stamp.ReplaceAllString(buf.String(), "")
	if got != "[match] match started match=m-1 players=3\n" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestWithGroupPrefixesKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, slog.LevelInfo)).WithGroup("req")

	log.Info("served", "tag", "api", "status", 200)

	got := stamp.ReplaceAllString(buf.String(), "")
	if got != "[api] served req.status=200\n" {
		t.Errorf("unexpected line %q", got)
	}
}
