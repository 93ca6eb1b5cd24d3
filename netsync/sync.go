// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netsync implements the sync controller: it tracks the
// observed block acceptance rate and decides whether this node is still
// catching up with its peers, in which case the Forger is disabled and
// the node instead requests the next block by previous-hash.
package netsync

import (
	"math"

	"github.com/vrfpos/node/blockchain"
)

// bpsTarget is 0.5 + 1/2^BLOCK_TIME, the threshold above which the node
// considers itself to be downloading rather than caught up.
var bpsTarget = 0.5 + 1/math.Pow(2, blockchain.BlockTime.Seconds())

// Controller tracks the exponentially-smoothed blocks-per-heartbeat rate.
type Controller struct {
	bps float64
	new float64
}

// NewController returns a Controller with a zeroed rate estimate.
func NewController() *Controller { return &Controller{} }

// Accepted records that a block was accepted into the tree during the
// current heartbeat interval.
func (c *Controller) Accepted() { c.new++ }

// Tick folds the current interval's count into the smoothed rate and
// resets the interval counter; called once per heartbeat.
func (c *Controller) Tick() {
	c.bps = (c.bps + c.new) / 2
	c.new = 0
}

// BPS returns the current smoothed blocks-per-heartbeat estimate.
func (c *Controller) BPS() float64 { return c.bps }

// Downloading reports whether the node should be considered to be
// catching up rather than tracking the chain tip live.
func (c *Controller) Downloading() bool { return c.bps > bpsTarget }
