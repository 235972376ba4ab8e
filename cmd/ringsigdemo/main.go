// Command ringsigdemo drives the ringsig package end to end: setup
// derives a public parameter set for a chosen backend group and ring
// size, sign produces a proof for one ring member's secret key, and
// verify checks it. Each subcommand is a separate process invocation,
// so setup and sign/verify exchange state through small files instead
// of memory: a parameter descriptor (group, ring size, label — Setup
// is deterministic in these, so nothing else needs to be written), a
// hex-encoded ring, a hex-encoded secret key, and a hex-encoded
// signature.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/takakv/ringsig/group"
	"github.com/takakv/ringsig/ringsig"
)

// paramDescriptor is the on-disk record of a Setup call's inputs.
// Setup has no randomness, so re-running it from this descriptor
// reconstructs byte-identical PublicParams.
type paramDescriptor struct {
	Group string `json:"group"`
	Size  int    `json:"size"`
	Label string `json:"label"`
}

func resolveGroup(name string) (group.Group, error) {
	switch name {
	case "ristretto255":
		return group.Ristretto255(), nil
	case "p256":
		return group.P256(), nil
	case "p384":
		return group.P384(), nil
	case "secp256k1":
		return group.SecP256k1(), nil
	default:
		return nil, fmt.Errorf("unknown group %q (want ristretto255, p256, p384, or secp256k1)", name)
	}
}

func loadDescriptor(path string) (*paramDescriptor, *ringsig.PublicParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading params file: %w", err)
	}
	var desc paramDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, nil, fmt.Errorf("parsing params file: %w", err)
	}
	grp, err := resolveGroup(desc.Group)
	if err != nil {
		return nil, nil, err
	}
	params, err := ringsig.Setup(grp, desc.Size, desc.Label)
	if err != nil {
		return nil, nil, fmt.Errorf("re-deriving params: %w", err)
	}
	return &desc, params, nil
}

func writeRing(path string, ring []group.Element) error {
	hexRing := make([]string, len(ring))
	for i, e := range ring {
		raw, err := e.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encoding ring entry %d: %w", i, err)
		}
		hexRing[i] = hex.EncodeToString(raw)
	}
	out, err := json.MarshalIndent(hexRing, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

func readRing(grp group.Group, path string) ([]group.Element, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ring file: %w", err)
	}
	var hexRing []string
	if err := json.Unmarshal(raw, &hexRing); err != nil {
		return nil, fmt.Errorf("parsing ring file: %w", err)
	}
	ring := make([]group.Element, len(hexRing))
	for i, h := range hexRing {
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("decoding ring entry %d: %w", i, err)
		}
		e := grp.Element()
		if err := e.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("unmarshalling ring entry %d: %w", i, err)
		}
		ring[i] = e
	}
	return ring, nil
}

func newLogger(c *cli.Context) zerolog.Logger {
	if !c.Bool("verbose") {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func setupCmd(c *cli.Context) error {
	desc := paramDescriptor{
		Group: c.String("group"),
		Size:  c.Int("size"),
		Label: c.String("label"),
	}
	grp, err := resolveGroup(desc.Group)
	if err != nil {
		return err
	}
	params, err := ringsig.Setup(grp, desc.Size, desc.Label)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	raw, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.String("out-params"), raw, 0o600); err != nil {
		return fmt.Errorf("writing params file: %w", err)
	}

	order := grp.N()
	ring := make([]group.Element, desc.Size)
	sk, err := randScalar(order)
	if err != nil {
		return err
	}
	signerIdx := c.Int("signer-index")
	if signerIdx < 0 || signerIdx >= desc.Size {
		return fmt.Errorf("signer-index %d out of range [0,%d)", signerIdx, desc.Size)
	}
	for i := range ring {
		if i == signerIdx {
			ring[i] = params.PublicKey(sk)
			continue
		}
		decoySK, err := randScalar(order)
		if err != nil {
			return err
		}
		ring[i] = params.PublicKey(decoySK)
	}

	if err := writeRing(c.String("out-ring"), ring); err != nil {
		return err
	}
	if err := os.WriteFile(c.String("out-secret"), []byte(sk.Text(16)), 0o600); err != nil {
		return fmt.Errorf("writing secret file: %w", err)
	}

	fmt.Printf("setup complete: group=%s size=%d signer-index=%d\n", desc.Group, desc.Size, signerIdx)
	fmt.Printf("  params: %s\n  ring:   %s\n  secret: %s\n", c.String("out-params"), c.String("out-ring"), c.String("out-secret"))
	return nil
}

func randScalar(order *big.Int) (*big.Int, error) {
	s, err := rand.Int(rand.Reader, order)
	if err != nil {
		return nil, fmt.Errorf("sampling scalar: %w", err)
	}
	return s, nil
}

func signCmd(c *cli.Context) error {
	logger := newLogger(c)
	_, params, err := loadDescriptor(c.String("params"))
	if err != nil {
		return err
	}
	ring, err := readRing(params.Group, c.String("ring"))
	if err != nil {
		return err
	}
	secretRaw, err := os.ReadFile(c.String("secret"))
	if err != nil {
		return fmt.Errorf("reading secret file: %w", err)
	}
	sk, ok := new(big.Int).SetString(string(secretRaw), 16)
	if !ok {
		return fmt.Errorf("malformed secret file %s", c.String("secret"))
	}

	start := time.Now()
	sig, err := ringsig.Sign(params, sk, ring, []byte(c.String("message")), nil, logger)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	elapsed := time.Since(start)

	raw, err := sig.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding signature: %w", err)
	}
	if err := os.WriteFile(c.String("out"), []byte(hex.EncodeToString(raw)), 0o600); err != nil {
		return fmt.Errorf("writing signature file: %w", err)
	}

	fmt.Printf("signed %d-byte message over a %d-member ring in %s\n", len(c.String("message")), len(ring), elapsed)
	fmt.Printf("  signature: %s (%d bytes)\n", c.String("out"), len(raw))
	return nil
}

func verifyCmd(c *cli.Context) error {
	logger := newLogger(c)
	_, params, err := loadDescriptor(c.String("params"))
	if err != nil {
		return err
	}
	ring, err := readRing(params.Group, c.String("ring"))
	if err != nil {
		return err
	}
	sigHex, err := os.ReadFile(c.String("sig"))
	if err != nil {
		return fmt.Errorf("reading signature file: %w", err)
	}
	raw, err := hex.DecodeString(string(sigHex))
	if err != nil {
		return fmt.Errorf("decoding signature file: %w", err)
	}
	sig, err := ringsig.DecodeSignature(params.Group, raw)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}

	start := time.Now()
	verifyErr := ringsig.Verify(params, ring, []byte(c.String("message")), sig, logger)
	elapsed := time.Since(start)

	if verifyErr != nil {
		fmt.Printf("signature REJECTED in %s: %v\n", elapsed, verifyErr)
		os.Exit(1)
	}
	fmt.Printf("signature ACCEPTED in %s (ring size %d)\n", elapsed, len(ring))
	return nil
}

func main() {
	app := &cli.App{
		Name:  "ringsigdemo",
		Usage: "derive, sign, and verify logarithmic-size ring signatures",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log protocol steps at debug level"},
		},
		Commands: []*cli.Command{
			{
				Name:  "setup",
				Usage: "derive a public parameter set and a ring with one chosen signer slot",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "group", Value: "ristretto255", Usage: "ristretto255, p256, p384, or secp256k1"},
					&cli.IntFlag{Name: "size", Value: 16, Usage: "ring size, must be a power of two"},
					&cli.StringFlag{Name: "label", Value: "ringsigdemo", Usage: "domain-separation label"},
					&cli.IntFlag{Name: "signer-index", Value: 0, Usage: "index of the slot whose secret key is written out"},
					&cli.StringFlag{Name: "out-params", Value: "params.json"},
					&cli.StringFlag{Name: "out-ring", Value: "ring.json"},
					&cli.StringFlag{Name: "out-secret", Value: "secret.hex"},
				},
				Action: setupCmd,
			},
			{
				Name:  "sign",
				Usage: "sign a message on behalf of the secret key's ring slot",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "params", Value: "params.json"},
					&cli.StringFlag{Name: "ring", Value: "ring.json"},
					&cli.StringFlag{Name: "secret", Value: "secret.hex"},
					&cli.StringFlag{Name: "message", Required: true},
					&cli.StringFlag{Name: "out", Value: "sig.hex"},
				},
				Action: signCmd,
			},
			{
				Name:  "verify",
				Usage: "verify a signature against a ring and message",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "params", Value: "params.json"},
					&cli.StringFlag{Name: "ring", Value: "ring.json"},
					&cli.StringFlag{Name: "sig", Value: "sig.hex"},
					&cli.StringFlag{Name: "message", Required: true},
				},
				Action: verifyCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
