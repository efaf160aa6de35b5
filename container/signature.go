// Copyright (C) 2024 MCStream Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package container

import (
	"crypto/ed25519"

	"github.com/mcstream/mcstream/mcserr"
	"github.com/mcstream/mcstream/varint"
)

// SignatureAlgorithm identifies the signing scheme used by an optional
// trailing signature block.
type SignatureAlgorithm uint8

// SignatureEd25519 is the only signature algorithm currently defined.
const SignatureEd25519 SignatureAlgorithm = 1

// Signature is the parsed form of the optional signature block that
// may follow the trailing digest: an algorithm byte, a length-prefixed
// signature, and a length-prefixed public key, all signing exactly the
// 32-byte digest that precedes the block.
type Signature struct {
	Algorithm SignatureAlgorithm
	Sig       []byte
	PubKey    []byte
}

// Encode appends s's on-disk form to dst.
func (s Signature) Encode(dst []byte) []byte {
	dst = append(dst, byte(s.Algorithm))
	dst = varint.AppendBytes(dst, s.Sig)
	dst = varint.AppendBytes(dst, s.PubKey)
	return dst
}

// decodeSignature parses a signature block from buf, returning the
// parsed Signature and the number of bytes consumed.
func decodeSignature(buf []byte) (Signature, int, error) {
	if len(buf) < 1 {
		return Signature{}, 0, mcserr.New(mcserr.TruncatedFile, "signature block: missing algorithm byte")
	}
	alg := SignatureAlgorithm(buf[0])
	off := 1
	sig, n, err := varint.Bytes(buf[off:])
	if err != nil {
		return Signature{}, 0, mcserr.Wrap(mcserr.SignatureError, err, "signature block: signature bytes")
	}
	off += n
	pub, n, err := varint.Bytes(buf[off:])
	if err != nil {
		return Signature{}, 0, mcserr.Wrap(mcserr.SignatureError, err, "signature block: public key bytes")
	}
	off += n
	return Signature{Algorithm: alg, Sig: sig, PubKey: pub}, off, nil
}

// Signer produces a signature over a 32-byte SHA-256 digest.
type Signer interface {
	Algorithm() SignatureAlgorithm
	Sign(digest []byte) (sig, pubKey []byte, err error)
}

// Verifier checks a signature produced by a Signer of the same
// algorithm.
type Verifier interface {
	Algorithm() SignatureAlgorithm
	Verify(pubKey, digest, sig []byte) error
}

// Ed25519Signer signs with a standard library ed25519 private key.
type Ed25519Signer struct {
	PrivateKey ed25519.PrivateKey
}

func (Ed25519Signer) Algorithm() SignatureAlgorithm { return SignatureEd25519 }

func (s Ed25519Signer) Sign(digest []byte) (sig, pubKey []byte, err error) {
	pub, ok := s.PrivateKey.Public().(ed25519.PublicKey)
	if !ok {
		return nil, nil, mcserr.New(mcserr.SignatureError, "ed25519 private key has no usable public key")
	}
	return ed25519.Sign(s.PrivateKey, digest), []byte(pub), nil
}

// Ed25519Verifier verifies signatures produced by Ed25519Signer.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Algorithm() SignatureAlgorithm { return SignatureEd25519 }

func (Ed25519Verifier) Verify(pubKey, digest, sig []byte) error {
	if len(pubKey) != ed25519.PublicKeySize {
		return mcserr.New(mcserr.SignatureError, "ed25519 public key has wrong size %d", len(pubKey))
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKey), digest, sig) {
		return mcserr.New(mcserr.SignatureError, "ed25519 signature verification failed")
	}
	return nil
}
