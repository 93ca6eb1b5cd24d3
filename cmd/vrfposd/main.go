// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command vrfposd runs a single node of the proof-of-stake chain: it
// loads or generates a forging key, opens its KV store, rebuilds
// in-memory consensus state from whatever is already persisted, and
// drives the node loop until asked to stop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"github.com/jrick/logrotate/rotator"

	"github.com/decred/slog"

	"github.com/vrfpos/node/blockchain"
	"github.com/vrfpos/node/chainerr"
	"github.com/vrfpos/node/config"
	"github.com/vrfpos/node/internal/mining"
	"github.com/vrfpos/node/key"
	"github.com/vrfpos/node/mempool"
	"github.com/vrfpos/node/node"
	"github.com/vrfpos/node/store"
	"github.com/vrfpos/node/wire"
)

// logRotator, when non-nil, receives every log line alongside stdout. It
// is opened by initLogRotator once --logdir is known and never reopened.
var logRotator *rotator.Rotator

// logWriter fans log output out to stdout and, once initLogRotator has
// run, to the active rotated file.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var backendLog = slog.NewBackend(logWriter{})

// initLogRotator opens a rotating log file under dir, replacing the
// package-level logRotator. A zero dir leaves logging on stdout alone.
func initLogRotator(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return chainerr.Wrap(chainerr.Fatal, "create log directory", err)
	}
	r, err := rotator.New(filepath.Join(dir, "vrfposd.log"), 10*1024, false, 3)
	if err != nil {
		return chainerr.Wrap(chainerr.Fatal, "open log rotator", err)
	}
	logRotator = r
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "vrfposd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}

	if err := initLogRotator(cfg.LogDir); err != nil {
		return err
	}
	if logRotator != nil {
		defer logRotator.Close()
	}

	log := backendLog.Logger("NODE")
	log.SetLevel(slog.LevelInfo)
	mempool.UseLogger(backendLog.Logger("MPL"))
	store.UseLogger(backendLog.Logger("STOR"))
	node.UseLogger(backendLog.Logger("NODE"))

	dbDir, err := dataDir(cfg.TempDB)
	if err != nil {
		return err
	}
	st, err := store.Open(dbDir)
	if err != nil {
		return chainerr.Wrap(chainerr.Fatal, "open store", err)
	}
	defer st.Close()

	sk, err := loadOrGenerateKey(cfg)
	if err != nil {
		return err
	}

	tree, err := st.LoadTree()
	if err != nil {
		return chainerr.Wrap(chainerr.Fatal, "load tree", err)
	}
	tree.SortBranches()

	mainTip, _ := tree.Main()
	stableHashes, err := collectStableHashes(tree, mainTip, cfg.Trust)
	if err != nil {
		return err
	}

	// Restore the stable prefix from the last persisted checkpoint and
	// replay whatever the chain grew past it; a missing or out-of-date
	// checkpoint just means more blocks to replay.
	stable := blockchain.NewStable()
	replay := stableHashes
	if cp, ok, err := st.Checkpoint(); err != nil {
		return chainerr.Wrap(chainerr.Fatal, "load checkpoint", err)
	} else if ok && cp.Height <= len(stableHashes) {
		stable = blockchain.FromCheckpoint(stableHashes[:cp.Height], cp)
		replay = stableHashes[cp.Height:]
	}
	stable.SetResolver(st)
	if err := stable.Load(st, replay); err != nil {
		return chainerr.Wrap(chainerr.Fatal, "replay stable prefix", err)
	}

	var forger *mining.Forger
	if cfg.TempKey || cfg.Wallet != "" {
		forger = mining.New(sk)
	} else {
		forger = mining.Disabled()
	}

	fm := blockchain.NewForkManager(cfg.Trust, stable)
	unstableHashes, err := collectUnstableHashes(tree, mainTip, cfg.Trust)
	if err != nil {
		return err
	}
	unstable, err := blockchain.NewUnstable(st, unstableHashes, stable)
	if err != nil {
		return chainerr.Wrap(chainerr.Fatal, "rebuild unstable state", err)
	}
	fm.Unstable = unstable

	n := node.New(cfg, st, tree, fm, forger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	log.Infof("vrfposd starting, forger=%s", forger.Address())
	return n.Run(ctx, cfg.TicksPerSecond)
}

// dataDir returns the on-disk path for the node's KV store. When temp is
// set it creates and returns a fresh temporary directory instead; that
// directory is not removed on exit.
func dataDir(temp bool) (string, error) {
	if temp {
		return os.MkdirTemp("", "vrfposd-db-*")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vrfposd", "data"), nil
}

// loadOrGenerateKey resolves the forging key from --wallet, or generates
// a fresh one when --tempkey is set. A production wallet file's
// decryption under --passphrase is left to the wallet collaborator this
// daemon expects to run alongside; here it is accepted but not yet
// consumed, since no on-disk wallet format is normative for this chain.
func loadOrGenerateKey(cfg config.Config) (key.SecretKey, error) {
	if cfg.TempKey {
		return key.Generate()
	}
	if cfg.Wallet == "" {
		return key.SecretKey{}, nil
	}
	raw, err := os.ReadFile(cfg.Wallet)
	if err != nil {
		return key.SecretKey{}, chainerr.Wrap(chainerr.Fatal, "read wallet file", err)
	}
	return key.Decode(string(raw))
}

// mainChainHashesFromTip walks tree backward from tip to the genesis
// sentinel and returns every hash in between, oldest-first.
func mainChainHashesFromTip(tree *blockchain.Tree, tip wire.Hash) []wire.Hash {
	var all []wire.Hash
	cur := tip
	for !cur.IsZero() {
		all = append(all, cur)
		parent, ok := tree.Get(cur)
		if !ok {
			break
		}
		cur = parent
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all
}

// collectStableHashes returns every main-chain hash except the most
// recent trust-fork-after-blocks, oldest-first: those belong to Unstable.
func collectStableHashes(tree *blockchain.Tree, tip wire.Hash, trust int) ([]wire.Hash, error) {
	all := mainChainHashesFromTip(tree, tip)
	if len(all) <= trust {
		return nil, nil
	}
	return all[:len(all)-trust], nil
}

// collectUnstableHashes returns the most recent trust-fork-after-blocks
// main-chain hashes, oldest-first.
func collectUnstableHashes(tree *blockchain.Tree, tip wire.Hash, trust int) ([]wire.Hash, error) {
	all := mainChainHashesFromTip(tree, tip)
	if len(all) <= trust {
		return all, nil
	}
	return all[len(all)-trust:], nil
}
