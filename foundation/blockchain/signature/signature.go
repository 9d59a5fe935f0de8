// Package signature provides helper functions for handling the ledger
// signature and hashing needs.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ZeroHash represents the previous hash recorded by the genesis block.
const ZeroHash string = "0"

// Set of signature schemes supported by the ledger.
const (
	SchemeRSA       = "rsa"
	SchemeSecp256k1 = "secp256k1"
)

// ErrInvalidSignature is returned when a signature does not match the
// message and key it is being checked against.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Signer represents the behavior required to sign a canonical message with
// a private key.
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// Verifier represents the behavior required to check a signature against a
// canonical message with a public key.
type Verifier interface {
	Verify(message []byte, sig []byte) error
}

// =============================================================================

// Hash returns the hex encoded sha256 digest of the JSON form of the value.
func Hash(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	return HashBytes(data), nil
}

// HashBytes returns the hex encoded sha256 digest of the data.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Load constructs the signer and verifier for the specified scheme from the
// key files on disk. The private key path is optional, a node that only
// verifies transactions receives a nil Signer.
func Load(scheme string, privatePath string, publicPath string) (Signer, Verifier, error) {
	switch scheme {
	case SchemeRSA:
		return loadRSA(privatePath, publicPath)

	case SchemeSecp256k1:
		return loadSecp256k1(privatePath, publicPath)
	}

	return nil, nil, fmt.Errorf("unknown signature scheme %q", scheme)
}

func loadRSA(privatePath string, publicPath string) (Signer, Verifier, error) {
	var signer *RSASigner
	if privatePath != "" {
		key, err := LoadRSAPrivateKey(privatePath)
		if err != nil {
			return nil, nil, err
		}

		if signer, err = NewRSASigner(key); err != nil {
			return nil, nil, err
		}
	}

	switch {
	case publicPath != "":
		key, err := LoadRSAPublicKey(publicPath)
		if err != nil {
			return nil, nil, err
		}

		verifier, err := NewRSAVerifier(key)
		if err != nil {
			return nil, nil, err
		}

		if signer == nil {
			return nil, verifier, nil
		}
		return signer, verifier, nil

	case signer != nil:
		return signer, signer.Verifier(), nil
	}

	return nil, nil, errors.New("rsa scheme requires a private or public key path")
}

func loadSecp256k1(privatePath string, publicPath string) (Signer, Verifier, error) {
	var signer *ECDSASigner
	if privatePath != "" {
		key, err := LoadECDSAPrivateKey(privatePath)
		if err != nil {
			return nil, nil, err
		}

		if signer, err = NewECDSASigner(key); err != nil {
			return nil, nil, err
		}
	}

	switch {
	case publicPath != "":
		key, err := LoadECDSAPublicKey(publicPath)
		if err != nil {
			return nil, nil, err
		}

		verifier, err := NewECDSAVerifier(key)
		if err != nil {
			return nil, nil, err
		}

		if signer == nil {
			return nil, verifier, nil
		}
		return signer, verifier, nil

	case signer != nil:
		return signer, signer.Verifier(), nil
	}

	return nil, nil, errors.New("secp256k1 scheme requires a private or public key path")
}
