package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestParseDate(t *testing.T) {
    got, ok := ParseDate("2024-10-10")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Year() != 2024 || got.Month() != time.October || got.Day() != 10 {
        t.Fatalf("unexpected date %v", got)
    }
    if _, ok := ParseDate("10/10/2024"); ok {
        t.Fatalf("expected parse failure")
    }
}

func TestFormatDate(t *testing.T) {
    d := time.Date(2024, 10, 10, 23, 59, 0, 0, time.UTC)
    if got := FormatDate(d); got != "2024-10-10" {
        t.Fatalf("unexpected format %q", got)
    }
}