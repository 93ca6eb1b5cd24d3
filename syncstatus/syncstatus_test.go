// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncstatus

import "testing"

func TestHumanizeZero(t *testing.T) {
	if got := Humanize(0, "synced"); got != "synced" {
		t.Fatalf("Humanize(0) = %q, want %q", got, "synced")
	}
}

func TestHumanizeSingleUnit(t *testing.T) {
	if got := Humanize(45, "synced"); got != "45 seconds" {
		t.Fatalf("Humanize(45) = %q, want %q", got, "45 seconds")
	}
}

func TestHumanizeTwoUnits(t *testing.T) {
	if got := Humanize(3661, "synced"); got != "1 hour and 1 minute" {
		t.Fatalf("Humanize(3661) = %q, want %q", got, "1 hour and 1 minute")
	}
}

func TestHumanizeCapsAtTwoUnits(t *testing.T) {
	got := Humanize(604800+86400+3600+60+1, "synced")
	if got != "1 week and 1 day" {
		t.Fatalf("Humanize = %q, want %q", got, "1 week and 1 day")
	}
}
