// Package bls implements a go-wrapper around a library implementing the
// BLS12-381 curve and signature scheme. This package exposes a public API for
// verifying and aggregating BLS signatures used by Ethereum 2.0.
package bls

import (
	"fmt"

	"github.com/adaszko/lighthouse/shared/bytesutil"
	bls12 "github.com/herumi/bls-eth-go-binary/bls"
	"github.com/pkg/errors"
)

func init() {
	if err := bls12.Init(bls12.BLS12_381); err != nil {
		panic(err)
	}
	if err := bls12.SetETHmode(bls12.EthModeDraft07); err != nil {
		panic(err)
	}
}

// SecretKey used in the BLS signature scheme.
type SecretKey struct {
	p *bls12.SecretKey
}

// PublicKey used in the BLS signature scheme.
type PublicKey struct {
	p *bls12.PublicKey
}

// Signature used in the BLS signature scheme.
type Signature struct {
	s *bls12.Sign
}

// RandKey creates a new private key from the BLS library's CSPRNG.
func RandKey() *SecretKey {
	secKey := &bls12.SecretKey{}
	secKey.SetByCSPRNG()
	return &SecretKey{secKey}
}

// SecretKeyFromBytes creates a BLS private key from a byte slice.
func SecretKeyFromBytes(priv []byte) (*SecretKey, error) {
	secKey := &bls12.SecretKey{}
	if err := secKey.Deserialize(priv); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal bytes into secret key")
	}
	return &SecretKey{p: secKey}, nil
}

// PublicKeyFromBytes creates a BLS public key from a byte slice.
func PublicKeyFromBytes(pub []byte) (*PublicKey, error) {
	pubKey := &bls12.PublicKey{}
	if err := pubKey.Deserialize(pub); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal bytes into public key")
	}
	return &PublicKey{p: pubKey}, nil
}

// SignatureFromBytes creates a BLS signature from a byte slice.
func SignatureFromBytes(sig []byte) (*Signature, error) {
	signature := &bls12.Sign{}
	if err := signature.Deserialize(sig); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal bytes into signature")
	}
	return &Signature{s: signature}, nil
}

// PublicKey obtains the public key corresponding to the BLS secret key.
func (s *SecretKey) PublicKey() *PublicKey {
	return &PublicKey{p: s.p.GetPublicKey()}
}

// Sign a message using a secret key. The domain is mixed into the signed
// payload the way the wire protocol expects it: msg || domain, little-endian.
func (s *SecretKey) Sign(msg []byte, domain uint64) *Signature {
	signature := s.p.SignByte(withDomain(msg, domain))
	return &Signature{s: signature}
}

// Marshal a secret key into a LittleEndian byte slice.
func (s *SecretKey) Marshal() []byte {
	return s.p.Serialize()
}

// Marshal a public key into a byte slice.
func (p *PublicKey) Marshal() []byte {
	return p.p.Serialize()
}

// Copy the public key to a new pointer reference.
func (p *PublicKey) Copy() *PublicKey {
	np := *p.p
	return &PublicKey{p: &np}
}

// Aggregate two public keys.
func (p *PublicKey) Aggregate(p2 *PublicKey) *PublicKey {
	p.p.Add(p2.p)
	return p
}

// Verify a bls signature given a public key, a message, and a domain.
func (s *Signature) Verify(msg []byte, pub *PublicKey, domain uint64) bool {
	return s.s.VerifyByte(pub.p, withDomain(msg, domain))
}

// VerifyAggregateCommon aggregates the public keys and verifies the signature
// against that aggregate over one common message. An empty key list returns
// false. This is vulnerable to the rogue public-key attack and callers must
// ensure proof of possession of each key.
func (s *Signature) VerifyAggregateCommon(pubKeys []*PublicKey, msg []byte, domain uint64) bool {
	if len(pubKeys) == 0 {
		return false
	}
	aggregated := pubKeys[0].Copy()
	for _, pub := range pubKeys[1:] {
		aggregated.Aggregate(pub)
	}
	return s.s.VerifyByte(aggregated.p, withDomain(msg, domain))
}

// Marshal a signature into a byte slice.
func (s *Signature) Marshal() []byte {
	return s.s.Serialize()
}

// AggregateSignatures converts a list of signatures into a single, aggregated sig.
func AggregateSignatures(sigs []*Signature) *Signature {
	if len(sigs) == 0 {
		return nil
	}
	signature := *sigs[0].s
	for _, sig := range sigs[1:] {
		signature.Add(sig.s)
	}
	return &Signature{s: &signature}
}

// Domain returns the bls domain given by the domain type and fork version.
// The spec describes this as bytes8(domain_type || fork_version) interpreted
// as an integer.
func Domain(domainType [4]byte, forkVersion [4]byte) uint64 {
	b := []byte{}
	b = append(b, domainType[:]...)
	b = append(b, forkVersion[:]...)
	return bytesutil.FromBytes8(b)
}

func withDomain(msg []byte, domain uint64) []byte {
	signingData := make([]byte, 0, len(msg)+8)
	signingData = append(signingData, msg...)
	return append(signingData, bytesutil.Bytes8(domain)...)
}

// String returns a hex representation of the public key.
func (p *PublicKey) String() string {
	return fmt.Sprintf("%#x", p.Marshal())
}
