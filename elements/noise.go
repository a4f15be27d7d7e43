// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"fmt"

	"github.com/clickrouter/click"
	"github.com/flynn/noise"
)

// noiseSuite is the cipher suite every Noise element in this package
// uses: Curve25519 for key agreement (unused here, since encap/decap
// skip the handshake and work from a pre-shared key), ChaCha20-Poly1305
// for the AEAD, and BLAKE2s for the handshake hash.
var noiseSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashBLAKE2s)

// NoiseEncap is a one-input, one-output simple_action element that
// encrypts a packet's payload into a new packet with a Noise transport
// cipher derived from a pre-shared 32-byte key, framing only — never a
// protocol-specific header (spec.md §4.6).
type NoiseEncap struct {
	cipher *noise.CipherState
}

// NewNoiseEncap returns a [*NoiseEncap] keyed by key.
func NewNoiseEncap(key [32]byte) *NoiseEncap {
	return &NoiseEncap{cipher: noiseSuite.Cipher(key)}
}

var _ click.Element = (*NoiseEncap)(nil)
var _ click.SimpleActioner = (*NoiseEncap)(nil)

func (e *NoiseEncap) ClassName() string               { return "NoiseEncap" }
func (e *NoiseEncap) PortCount() click.PortCountSpec   { return click.Fixed(1, 1) }
func (e *NoiseEncap) Processing(click.Direction, int) click.ProcessingKind { return click.Agnostic }
func (e *NoiseEncap) Configure(context.Context, []string, *click.ErrorHandler) error {
	return nil
}
func (e *NoiseEncap) Initialize(context.Context, *click.ErrorHandler) error { return nil }
func (e *NoiseEncap) Cleanup(click.CleanupStage)                           {}

// SimpleAction returns a new packet holding p's Noise-sealed ciphertext
// and kills p.
func (e *NoiseEncap) SimpleAction(ctx context.Context, p *click.Packet) (*click.Packet, error) {
	sealed := e.cipher.Encrypt(nil, nil, p.Data())
	out, err := click.MakePacket(0, len(sealed), 0, 0)
	if err != nil {
		p.Kill()
		return nil, fmt.Errorf("noise encap: %w", err)
	}
	copy(out.Data(), sealed)
	p.Kill()
	return out, nil
}

// NoiseDecap is NoiseEncap's mirror: it opens a Noise-sealed payload
// back into plaintext using the same pre-shared key.
type NoiseDecap struct {
	cipher *noise.CipherState
}

// NewNoiseDecap returns a [*NoiseDecap] keyed by key.
func NewNoiseDecap(key [32]byte) *NoiseDecap {
	return &NoiseDecap{cipher: noiseSuite.Cipher(key)}
}

var _ click.Element = (*NoiseDecap)(nil)
var _ click.SimpleActioner = (*NoiseDecap)(nil)

func (e *NoiseDecap) ClassName() string               { return "NoiseDecap" }
func (e *NoiseDecap) PortCount() click.PortCountSpec   { return click.Fixed(1, 1) }
func (e *NoiseDecap) Processing(click.Direction, int) click.ProcessingKind { return click.Agnostic }
func (e *NoiseDecap) Configure(context.Context, []string, *click.ErrorHandler) error {
	return nil
}
func (e *NoiseDecap) Initialize(context.Context, *click.ErrorHandler) error { return nil }
func (e *NoiseDecap) Cleanup(click.CleanupStage)                           {}

// SimpleAction opens p's sealed payload back into plaintext, dropping
// the packet silently on an authentication failure.
func (e *NoiseDecap) SimpleAction(ctx context.Context, p *click.Packet) (*click.Packet, error) {
	opened, err := e.cipher.Decrypt(nil, nil, p.Data())
	p.Kill()
	if err != nil {
		return nil, nil
	}
	out, err := click.MakePacket(0, len(opened), 0, 0)
	if err != nil {
		return nil, fmt.Errorf("noise decap: %w", err)
	}
	copy(out.Data(), opened)
	return out, nil
}
