package ledger

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// Signer holds the EC private key used to sign submissions. The ledger
// gateway verifies the signature against the submitting account's public
// key.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSignerFromFile loads a PEM-encoded EC private key.
func NewSignerFromFile(path string) (*Signer, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return NewSignerFromPem(buf)
}

func NewSignerFromPem(data []byte) (*Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block in key data")
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse EC private key: %w", err)
	}
	return &Signer{key: key}, nil
}

// GenerateSigner creates a fresh P-256 key. Used by tests and by operators
// bootstrapping a new submitting identity.
func GenerateSigner() (*Signer, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Signer{key: key}, nil
}

// Sign returns hex(r || s) over the sha256 digest of payload. r and s are
// left-padded to the curve byte size so signatures have a fixed width.
func (s *Signer) Sign(payload []byte) (string, error) {
	digest := sha256.Sum256(payload)
	r, sv, err := ecdsa.Sign(rand.Reader, s.key, digest[:])
	if err != nil {
		return "", err
	}
	size := (s.key.Curve.Params().BitSize + 7) / 8
	sig := make([]byte, 2*size)
	r.FillBytes(sig[:size])
	sv.FillBytes(sig[size:])
	return hex.EncodeToString(sig), nil
}

// PublicKey returns the uncompressed public key in hex. This doubles as the
// account address on the ledger gateway.
func (s *Signer) PublicKey() string {
	pub := elliptic.Marshal(s.key.Curve, s.key.PublicKey.X, s.key.PublicKey.Y)
	return hex.EncodeToString(pub)
}

// MarshalPem renders the private key back to PEM, for key generation
// tooling.
func (s *Signer) MarshalPem() ([]byte, error) {
	b, err := x509.MarshalECPrivateKey(s.key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: b}), nil
}
