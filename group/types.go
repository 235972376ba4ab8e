package group

import "math/big"

// ECPoint is the affine JSON representation used by the Weierstrass
// backends (P-256, P-384, secp256k1). (0, 0) is the reserved encoding of the
// point at infinity.
type ECPoint struct {
	X *big.Int `json:"x"`
	Y *big.Int `json:"y"`
}

// GroupId identifies a Group in JSON, so parameters can be
// deserialized against the right backend.
type GroupId struct {
	Name string `json:"group"`
}

// CompressedPoint is the JSON representation used by backends whose
// native wire format is already a single compressed byte string
// (Ristretto255, ModPGroup) rather than affine (x, y) coordinates.
type CompressedPoint struct {
	Data string `json:"data"`
}
