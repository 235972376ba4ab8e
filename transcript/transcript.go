// Package transcript implements a Merlin-style Fiat-Shamir transcript:
// a stateful, domain-separated sha256 duplex that turns the
// ring-signature Sigma protocol and the inner-product argument from
// interactive into non-interactive proofs. Prover and verifier share
// no state except what flows through append/challenge calls made in
// identical order with identical labels.
package transcript

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"
	"math/big"

	"github.com/takakv/ringsig/group"
)

// Transcript is a single-owner, append-only hash state. It is never
// safe to share across concurrent proving/verifying calls.
type Transcript struct {
	h hash.Hash
}

// New starts a transcript domain-separated by protocolLabel, e.g.
// "ringsig/v1" or "bulletproofs/ipa/v1".
func New(protocolLabel string) *Transcript {
	t := &Transcript{h: sha256.New()}
	t.AppendBytes("dom-sep", []byte(protocolLabel))
	return t
}

// AppendBytes domain-separates data under label and absorbs it.
func (t *Transcript) AppendBytes(label string, data []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(label)))
	t.h.Write(lenBuf[:])
	t.h.Write([]byte(label))
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
	t.h.Write(lenBuf[:])
	t.h.Write(data)
}

// AppendPoint serializes P in its canonical compressed form and
// absorbs it under label.
func (t *Transcript) AppendPoint(label string, p group.Element) error {
	raw, err := p.MarshalBinary()
	if err != nil {
		return fmt.Errorf("transcript: AppendPoint(%s): %w", label, err)
	}
	t.AppendBytes(label, raw)
	return nil
}

// AppendScalar absorbs s as canonical big-endian bytes under label.
func (t *Transcript) AppendScalar(label string, s *big.Int) {
	t.AppendBytes(label, s.Bytes())
}

// AppendUint64 absorbs a length or count, e.g. the IPA's vector size n.
func (t *Transcript) AppendUint64(label string, n uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	t.AppendBytes(label, buf[:])
}

// Challenge squeezes a scalar challenge domain-separated by label,
// uniform over [0, order), then ratchets the transcript state forward
// so that repeated challenge calls (even under the same label) never
// collide and every later append/challenge is bound to this one.
//
// Clones of the hash.Hash state are used instead of consuming the
// running digest directly, via the BinaryMarshaler/BinaryUnmarshaler
// that crypto/sha256's digest type implements; a clone's Sum does not
// advance the original transcript.
func (t *Transcript) Challenge(label string, order *big.Int) *big.Int {
	wide := make([]byte, 0, 64)
	for ctr := uint32(0); len(wide) < 64; ctr++ {
		clone := t.clone()
		var ctrBuf [4]byte
		binary.BigEndian.PutUint32(ctrBuf[:], ctr)
		clone.AppendBytes(label, ctrBuf[:])
		wide = append(wide, clone.h.Sum(nil)...)
	}

	raw := new(big.Int).SetBytes(wide[:64])
	challenge := new(big.Int).Mod(raw, order)

	t.AppendBytes(label+"/challenge", challenge.Bytes())
	return challenge
}

func (t *Transcript) clone() *Transcript {
	marshaler, ok := t.h.(interface{ MarshalBinary() ([]byte, error) })
	if !ok {
		panic("transcript: underlying hash does not support state cloning")
	}
	state, err := marshaler.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("transcript: cloning hash state: %v", err))
	}
	clone := sha256.New()
	unmarshaler := clone.(interface{ UnmarshalBinary([]byte) error })
	if err := unmarshaler.UnmarshalBinary(state); err != nil {
		panic(fmt.Sprintf("transcript: restoring hash state: %v", err))
	}
	return &Transcript{h: clone}
}
