// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package key

import (
	"bytes"
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/vrfpos/node/chainerr"
)

// This file implements ECVRF-SECP256K1-SHA256-TAI (RFC 9381 §5.4.2): an
// elliptic-curve VRF built directly on secp256k1's field, scalar and
// Jacobian-point primitives. Its proof is 33 (compressed gamma point) +
// 16 (truncated challenge) + 32 (response scalar) = 81 bytes.

const (
	vrfSuite        byte = 0xFE
	vrfChallengeLen      = 16
	// VRFProofSize is the length in bytes of an EC-VRF proof (pi).
	VRFProofSize = 33 + vrfChallengeLen + 32
	// VRFOutputSize is the length in bytes of a VRF output (beta).
	VRFOutputSize = 32
)

// hashToCurve implements the try-and-increment ("TAI") hash-to-curve
// construction: hash the suite/owner/input/counter tuple and attempt to
// decompress it as the x-coordinate of an even-y point, incrementing the
// counter until one lands on the curve. secp256k1 has cofactor 1, so no
// cofactor clearing is needed once a point is found.
func hashToCurve(ownerPub [33]byte, alpha []byte) *secp256k1.PublicKey {
	for ctr := 0; ctr < 256; ctr++ {
		h := sha256.New()
		h.Write([]byte{vrfSuite, 0x01})
		h.Write(ownerPub[:])
		h.Write(alpha)
		h.Write([]byte{byte(ctr)})
		h.Write([]byte{0x00})
		sum := h.Sum(nil)
		candidate := append([]byte{0x02}, sum...)
		if p, err := secp256k1.ParsePubKey(candidate); err == nil {
			return p
		}
	}
	return nil
}

// vrfNonce derives a deterministic per-proof nonce from the secret key and
// the hashed-to-curve point, retrying on the negligible chance of a
// zero or out-of-range scalar.
func vrfNonce(sk SecretKey, h *secp256k1.PublicKey) *secp256k1.ModNScalar {
	hb := h.SerializeCompressed()
	for ctr := 0; ; ctr++ {
		sum := sha256.Sum256(append(append(append([]byte{}, sk[:]...), hb...), byte(ctr)))
		var k secp256k1.ModNScalar
		overflow := k.SetByteSlice(sum[:])
		if !overflow && !k.IsZero() {
			return &k
		}
	}
}

// vrfChallenge implements ECVRF_hash_points: SHA-256 over the suite byte,
// the domain-separator 0x02, every point's compressed encoding, and a
// trailing zero byte, truncated to the first 16 bytes.
func vrfChallenge(points ...*secp256k1.PublicKey) [vrfChallengeLen]byte {
	h := sha256.New()
	h.Write([]byte{vrfSuite, 0x02})
	for _, p := range points {
		h.Write(p.SerializeCompressed())
	}
	h.Write([]byte{0x00})
	sum := h.Sum(nil)
	var c [vrfChallengeLen]byte
	copy(c[:], sum[:vrfChallengeLen])
	return c
}

func affinePubKey(j *secp256k1.JacobianPoint) *secp256k1.PublicKey {
	j.ToAffine()
	return secp256k1.NewPublicKey(&j.X, &j.Y)
}

// VRFProve computes pi = prove(sk, alpha): a proof that the holder of sk
// derived beta = VRFProofToHash(pi) from alpha, verifiable against sk's
// public key without revealing sk.
func (sk SecretKey) VRFProve(alpha []byte) ([VRFProofSize]byte, error) {
	ownerPub := sk.PublicKey()
	h := hashToCurve(ownerPub, alpha)
	if h == nil {
		return [VRFProofSize]byte{}, chainerr.New(chainerr.Key, "vrf hash-to-curve exhausted")
	}

	x := sk.priv().Key

	var hJac, gammaJac, kbJac, khJac secp256k1.JacobianPoint
	h.AsJacobian(&hJac)
	secp256k1.ScalarMultNonConst(&x, &hJac, &gammaJac)
	gamma := affinePubKey(&gammaJac)

	k := vrfNonce(sk, h)
	secp256k1.ScalarBaseMultNonConst(k, &kbJac)
	kb := affinePubKey(&kbJac)
	secp256k1.ScalarMultNonConst(k, &hJac, &khJac)
	kh := affinePubKey(&khJac)

	c := vrfChallenge(h, gamma, kb, kh)
	var cScalar secp256k1.ModNScalar
	cScalar.SetByteSlice(c[:])

	var cx, s secp256k1.ModNScalar
	cx.Mul2(&cScalar, &x)
	s.Add2(k, &cx)

	var proof [VRFProofSize]byte
	copy(proof[0:33], gamma.SerializeCompressed())
	copy(proof[33:33+vrfChallengeLen], c[:])
	sBytes := s.Bytes()
	copy(proof[33+vrfChallengeLen:], sBytes[:])
	return proof, nil
}

// VRFVerify checks that pi is a valid proof, produced by the holder of
// pubKey, that alpha hashes to VRFProofToHash(pi).
func VRFVerify(pubKey [33]byte, pi [VRFProofSize]byte, alpha []byte) bool {
	gamma, err := secp256k1.ParsePubKey(pi[0:33])
	if err != nil {
		return false
	}
	var c [vrfChallengeLen]byte
	copy(c[:], pi[33:33+vrfChallengeLen])
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(pi[33+vrfChallengeLen:]); overflow {
		return false
	}
	var cScalar secp256k1.ModNScalar
	cScalar.SetByteSlice(c[:])
	negC := cScalar
	negC.Negate()

	pub, err := secp256k1.ParsePubKey(pubKey[:])
	if err != nil {
		return false
	}
	h := hashToCurve(pubKey, alpha)
	if h == nil {
		return false
	}

	var hJac, gammaJac, pubJac secp256k1.JacobianPoint
	h.AsJacobian(&hJac)
	gamma.AsJacobian(&gammaJac)
	pub.AsJacobian(&pubJac)

	var sB, cY, u secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s, &sB)
	secp256k1.ScalarMultNonConst(&negC, &pubJac, &cY)
	secp256k1.AddNonConst(&sB, &cY, &u)

	var sH, cGamma, v secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&s, &hJac, &sH)
	secp256k1.ScalarMultNonConst(&negC, &gammaJac, &cGamma)
	secp256k1.AddNonConst(&sH, &cGamma, &v)

	uPub := affinePubKey(&u)
	vPub := affinePubKey(&v)

	cPrime := vrfChallenge(h, gamma, uPub, vPub)
	return bytes.Equal(cPrime[:], c[:])
}

// VRFProofToHash derives the 32-byte VRF output beta from a proof. It does
// not itself verify the proof; callers must call VRFVerify first.
func VRFProofToHash(pi [VRFProofSize]byte) ([VRFOutputSize]byte, error) {
	gamma, err := secp256k1.ParsePubKey(pi[0:33])
	if err != nil {
		return [VRFOutputSize]byte{}, chainerr.New(chainerr.Key, "invalid vrf proof gamma")
	}
	h := sha256.New()
	h.Write([]byte{vrfSuite, 0x03})
	h.Write(gamma.SerializeCompressed())
	h.Write([]byte{0x00})
	var beta [VRFOutputSize]byte
	copy(beta[:], h.Sum(nil))
	return beta, nil
}
