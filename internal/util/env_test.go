package util

import (
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("SYNC_TEST_STR", "abc")
	if got := GetEnvString("SYNC_TEST_STR", "def"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	t.Setenv("SYNC_TEST_STR", "")
	if got := GetEnvString("SYNC_TEST_STR", "def"); got != "def" {
		t.Fatalf("expected default for empty value, got %q", got)
	}
	if got := GetEnvString("SYNC_TEST_MISSING", "def"); got != "def" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestGetEnvNumeric(t *testing.T) {
	t.Setenv("SYNC_TEST_NUM", "12.5")
	if got := GetEnvNumeric("SYNC_TEST_NUM", 3); got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}
	t.Setenv("SYNC_TEST_NUM", "twelve")
	if got := GetEnvNumeric("SYNC_TEST_NUM", 3); got != 3 {
		t.Fatalf("expected default 3, got %v", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("SYNC_TEST_BOOL", "true")
	if !GetEnvBool("SYNC_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("SYNC_TEST_BOOL", "yes")
	if GetEnvBool("SYNC_TEST_BOOL", false) {
		t.Fatal("expected default false for unrecognised value")
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("SYNC_TEST_DUR", "45s")
	if got := GetEnvDuration("SYNC_TEST_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("expected 45s, got %v", got)
	}
	t.Setenv("SYNC_TEST_DUR", "soon")
	if got := GetEnvDuration("SYNC_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("expected default, got %v", got)
	}
}
