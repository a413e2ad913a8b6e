package domain

import (
	"testing"
	"time"
)

func TestWindowOpenAndExpiry(t *testing.T) {
	w := NewContributionWindow(30 * time.Second)
	now := time.Unix(1000, 0)
	w.now = func() time.Time { return now }

	if w.IsOpen("u1") {
		t.Error("window open before any signal")
	}

	w.Open("u1")
	if !w.IsOpen("u1") {
		t.Error("window closed immediately after opening")
	}

	now = now.Add(29 * time.Second)
	if !w.IsOpen("u1") {
		t.Error("window closed before timeout")
	}

	now = now.Add(time.Second)
	if w.IsOpen("u1") {
		t.Error("window still open at exactly the timeout")
	}

	// The stale entry was removed on read.
	if _, ok := w.entries["u1"]; ok {
		t.Error("expired entry not removed")
	}
}

func TestWindowReopenResetsClock(t *testing.T) {
	w := NewContributionWindow(30 * time.Second)
	now := time.Unix(1000, 0)
	w.now = func() time.Time { return now }

	w.Open("u1")
	now = now.Add(20 * time.Second)
	w.Open("u1")
	now = now.Add(20 * time.Second)

	if !w.IsOpen("u1") {
		t.Error("reopening should restart the timeout")
	}
}

func TestOpenSweepsExpiredEntries(t *testing.T) {
	w := NewContributionWindow(30 * time.Second)
	now := time.Unix(1000, 0)
	w.now = func() time.Time { return now }

	w.Open("u1")
	now = now.Add(time.Minute)
	w.Open("u2")

	if _, ok := w.entries["u1"]; ok {
		t.Error("expired entry for u1 survived the sweep")
	}
	if !w.IsOpen("u2") {
		t.Error("fresh entry for u2 missing")
	}
}

func TestWindowsAreIndependent(t *testing.T) {
	w := NewContributionWindow(30 * time.Second)
	now := time.Unix(1000, 0)
	w.now = func() time.Time { return now }

	w.Open("u1")
	if w.IsOpen("u2") {
		t.Error("opening u1's window opened u2's")
	}
}
