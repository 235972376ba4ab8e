package ringsig

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/takakv/ringsig/group"
	"github.com/takakv/ringsig/ipa"
)

// MarshalBinary encodes sig as a length-prefixed sequence of its
// fields, in the order they are declared: A, B, E, T1, T2, THat, TauX,
// Mu, Fs, the three Fiat-Shamir challenges y, z, x, the 32-byte message
// digest, then the IPA proof (round count, then each round's L, R and
// challenge in turn, then A, B). Every point and scalar is framed by a 4-byte big-endian
// length so DecodeSignature never has to guess a field's width; the
// digest's length is fixed and carries no prefix.
func (sig *Signature) MarshalBinary() ([]byte, error) {
	var buf []byte

	points := []group.Element{sig.A, sig.B, sig.E, sig.T1, sig.T2}
	for _, p := range points {
		raw, err := p.MarshalBinary()
		if err != nil {
			return nil, newError(SerializationError, err)
		}
		buf = appendFramed(buf, raw)
	}

	scalars := []*big.Int{sig.THat, sig.TauX, sig.Mu, sig.Fs, sig.Y, sig.Z, sig.X}
	for _, s := range scalars {
		buf = appendFramed(buf, s.Bytes())
	}
	buf = append(buf, sig.Digest[:]...)

	buf = appendUint32(buf, uint32(len(sig.IPA.L)))
	for i := range sig.IPA.L {
		raw, err := sig.IPA.L[i].MarshalBinary()
		if err != nil {
			return nil, newError(SerializationError, err)
		}
		buf = appendFramed(buf, raw)
		raw, err = sig.IPA.R[i].MarshalBinary()
		if err != nil {
			return nil, newError(SerializationError, err)
		}
		buf = appendFramed(buf, raw)
		buf = appendFramed(buf, sig.IPA.Challenges[i].Bytes())
	}
	buf = appendFramed(buf, sig.IPA.A.Bytes())
	buf = appendFramed(buf, sig.IPA.B.Bytes())

	return buf, nil
}

// DecodeSignature is the inverse of MarshalBinary. grp is required
// because a group.Element's concrete type cannot be recovered from its
// wire bytes alone; the caller supplies the group the signature was
// produced against (ordinarily params.Group).
func DecodeSignature(grp group.Group, data []byte) (*Signature, error) {
	r := &frameReader{buf: data}

	readPoint := func() (group.Element, error) {
		raw, err := r.next()
		if err != nil {
			return nil, err
		}
		e := grp.Element()
		if err := e.UnmarshalBinary(raw); err != nil {
			return nil, err
		}
		return e, nil
	}
	readScalar := func() (*big.Int, error) {
		raw, err := r.next()
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetBytes(raw), nil
	}

	sig := &Signature{}
	var err error
	if sig.A, err = readPoint(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.B, err = readPoint(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.E, err = readPoint(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.T1, err = readPoint(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.T2, err = readPoint(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.THat, err = readScalar(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.TauX, err = readScalar(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.Mu, err = readScalar(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.Fs, err = readScalar(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.Y, err = readScalar(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.Z, err = readScalar(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if sig.X, err = readScalar(); err != nil {
		return nil, newError(SerializationError, err)
	}
	digest, err := r.nextFixed(32)
	if err != nil {
		return nil, newError(SerializationError, err)
	}
	copy(sig.Digest[:], digest)

	roundCount, err := r.nextUint32()
	if err != nil {
		return nil, newError(SerializationError, err)
	}
	proof := &ipa.Proof{
		L:          make([]group.Element, roundCount),
		R:          make([]group.Element, roundCount),
		Challenges: make([]*big.Int, roundCount),
	}
	for i := uint32(0); i < roundCount; i++ {
		if proof.L[i], err = readPoint(); err != nil {
			return nil, newError(SerializationError, err)
		}
		if proof.R[i], err = readPoint(); err != nil {
			return nil, newError(SerializationError, err)
		}
		if proof.Challenges[i], err = readScalar(); err != nil {
			return nil, newError(SerializationError, err)
		}
	}
	if proof.A, err = readScalar(); err != nil {
		return nil, newError(SerializationError, err)
	}
	if proof.B, err = readScalar(); err != nil {
		return nil, newError(SerializationError, err)
	}
	sig.IPA = proof

	if !r.exhausted() {
		return nil, newError(SerializationError, fmt.Errorf("trailing bytes after decode"))
	}
	return sig, nil
}

func appendUint32(buf []byte, n uint32) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], n)
	return append(buf, lenBuf[:]...)
}

func appendFramed(buf, data []byte) []byte {
	buf = appendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

type frameReader struct {
	buf []byte
	pos int
}

func (r *frameReader) nextUint32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("truncated length prefix")
	}
	n := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return n, nil
}

func (r *frameReader) next() ([]byte, error) {
	n, err := r.nextUint32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, fmt.Errorf("truncated field: want %d bytes, have %d", n, len(r.buf)-r.pos)
	}
	out := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

// nextFixed reads n unframed bytes, for fields (like the message
// digest) whose width is fixed rather than length-prefixed.
func (r *frameReader) nextFixed(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("truncated fixed field: want %d bytes, have %d", n, len(r.buf)-r.pos)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *frameReader) exhausted() bool { return r.pos == len(r.buf) }
