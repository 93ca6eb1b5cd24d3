// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config collects the daemon's CLI-boundary defaults. Actual
// flag parsing happens in cmd/vrfposd; this struct just gives the
// defaults a single, host-agnostic home so the core packages never need
// to know an argv exists.
package config

// Config mirrors the daemon's CLI surface. Fields are tagged for
// github.com/jessevdk/go-flags; the parser itself lives in cmd/vrfposd.
type Config struct {
	Trust           int    `long:"trust" default:"2" description:"number of blocks after which a fork is no longer allowed (trust_fork_after_blocks)"`
	TimeDelta       int    `long:"time-delta" default:"1" description:"max seconds a pending item's timestamp may be ahead of wall clock"`
	Host            string `long:"host" description:"p2p listen multiaddr"`
	RPC             string `long:"rpc" description:"RPC listen address"`
	Peer            string `long:"peer" description:"multiaddr of a peer to dial on startup"`
	TempDB          bool   `long:"tempdb" description:"keep the KV store in a fresh temporary directory"`
	TempKey         bool   `long:"tempkey" description:"generate a fresh forging key instead of loading one"`
	Mint            bool   `long:"mint" description:"this node mints the genesis block"`
	Wallet          string `long:"wallet" description:"path to a file holding the forging key in its plain SECRETx text form"`
	Passphrase      string `long:"passphrase" description:"accepted but unused: --wallet is read unencrypted"`
	Timeout         int    `long:"timeout" default:"300" description:"seconds before an idle peer connection is dropped"`
	TicksPerSecond  int    `long:"tps" default:"1" description:"node loop ticks per second"`
	MinStake        uint64 `long:"min-stake" description:"cold-start self-stake amount in smallest (10^-18) units; 0 means one COIN"`
	LogDir          string `long:"logdir" description:"directory for the rotating log file; empty disables file logging"`
}

// Default returns a Config populated with every flag's default value.
func Default() Config {
	return Config{
		Trust:          2,
		TimeDelta:      1,
		Timeout:        300,
		TicksPerSecond: 1,
	}
}
