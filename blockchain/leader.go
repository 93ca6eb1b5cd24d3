// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/vrfpos/node/address"
)

// LeaderForSlot deterministically picks the staker queue position
// scheduled to forge slotIndex slots after the previous block, given the
// previous block's beta. r = SHA-256(beta ‖ slot_index.be) interpreted
// big-endian, modulo the queue length; queue[r] is the leader. Both the
// Pending Pool (validating an incoming block's forger) and the Forger
// (deciding whether this node is the leader) call this so the two
// agree on exactly the same schedule.
func LeaderForSlot(queue []address.Address, previousBeta [32]byte, slotIndex uint64) (address.Address, bool) {
	if len(queue) == 0 {
		return address.Address{}, false
	}
	var buf [40]byte
	copy(buf[:32], previousBeta[:])
	binary.BigEndian.PutUint64(buf[32:], slotIndex)
	sum := sha256.Sum256(buf[:])

	r := new(big.Int).SetBytes(sum[:])
	n := big.NewInt(int64(len(queue)))
	r.Mod(r, n)
	return queue[r.Int64()], true
}
