// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import "testing"

func TestDownloadingWhenRateHigh(t *testing.T) {
	c := NewController()
	for i := 0; i < 5; i++ {
		c.Accepted()
		c.Accepted()
		c.Tick()
	}
	if !c.Downloading() {
		t.Fatalf("bps=%f should exceed target", c.BPS())
	}
}

func TestNotDownloadingWhenIdle(t *testing.T) {
	c := NewController()
	c.Tick()
	if c.Downloading() {
		t.Fatal("an idle controller should not report downloading")
	}
}
