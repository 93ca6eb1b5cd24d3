// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainerr defines the error taxonomy shared by every consensus
// package. Every error the core returns carries one Kind so callers can
// switch on cause without string matching.
package chainerr

import "fmt"

// Kind identifies the class of failure a chainerr.Error represents.
type Kind int

const (
	// Codec indicates a bincode/hex-equivalent decoding failure.
	Codec Kind = iota
	// Key indicates an invalid signature, a non-canonical recovery id, or
	// a VRF verification failure.
	Key
	// Checksum indicates an address or secret-key text checksum mismatch.
	Checksum
	// Length indicates an address or secret-key text decoded to the wrong
	// byte length.
	Length
	// NotFound indicates a KV lookup miss.
	NotFound
	// NotAllowedToForkStableChain indicates a candidate tip would require
	// reverting a finalized block.
	NotAllowedToForkStableChain
	// PendingRejected indicates a pending pool admission predicate failed;
	// see the Reason field for which one.
	PendingRejected
	// Fatal indicates checkpoint disk corruption or inconsistent state
	// after replay; the process must exit non-zero.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Codec:
		return "codec"
	case Key:
		return "key"
	case Checksum:
		return "checksum"
	case Length:
		return "length"
	case NotFound:
		return "not found"
	case NotAllowedToForkStableChain:
		return "not allowed to fork stable chain"
	case PendingRejected:
		return "pending rejected"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Reason narrows a PendingRejected error to the specific admission
// predicate that failed.
type Reason int

const (
	// ReasonNone applies to every Kind other than PendingRejected.
	ReasonNone Reason = iota
	ReasonBalance
	ReasonStaked
	ReasonSignature
	ReasonTimestamp
	ReasonDuplicate
	ReasonSize
)

func (r Reason) String() string {
	switch r {
	case ReasonBalance:
		return "balance"
	case ReasonStaked:
		return "staked"
	case ReasonSignature:
		return "signature"
	case ReasonTimestamp:
		return "timestamp"
	case ReasonDuplicate:
		return "duplicate"
	case ReasonSize:
		return "size"
	default:
		return "none"
	}
}

// Error is the concrete error type returned throughout the core. It wraps
// an optional underlying cause without losing the Kind classification.
type Error struct {
	Kind   Kind
	Reason Reason
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Reason != ReasonNone:
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Reason, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Reason != ReasonNone:
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target carries the same Kind, which is all callers
// should ever need to branch on.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Rejected builds a PendingRejected error for the given admission reason.
func Rejected(reason Reason, msg string) *Error {
	return &Error{Kind: PendingRejected, Reason: reason, Msg: msg}
}

// Sentinel values for the kinds that never carry extra context, so callers
// can use errors.Is against a single shared instance.
var (
	ErrNotFound                    = New(NotFound, "not found")
	ErrNotAllowedToForkStableChain = New(NotAllowedToForkStableChain, "candidate tip reverts a finalized block")
)
