package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ECDSASigner signs messages with a secp256k1 key. The message is stamped
// before signing so signatures produced here are only valid for the ledger.
type ECDSASigner struct {
	key *ecdsa.PrivateKey
}

// NewECDSASigner constructs a signer for the specified private key.
func NewECDSASigner(key *ecdsa.PrivateKey) (*ECDSASigner, error) {
	if key == nil {
		return nil, errors.New("ecdsa private key is required")
	}

	return &ECDSASigner{key: key}, nil
}

// Sign uses the private key to produce a 65 byte [R|S|V] signature.
func (s *ECDSASigner) Sign(message []byte) ([]byte, error) {
	data := stamp(message)

	sig, err := crypto.Sign(data, s.key)
	if err != nil {
		return nil, err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, ErrInvalidSignature
	}

	return sig, nil
}

// Address returns the account address for the signer's key.
func (s *ECDSASigner) Address() string {
	return crypto.PubkeyToAddress(s.key.PublicKey).String()
}

// Verifier returns the verifier for the public half of the signer's key.
func (s *ECDSASigner) Verifier() *ECDSAVerifier {
	return &ECDSAVerifier{key: &s.key.PublicKey}
}

// ECDSAVerifier checks secp256k1 signatures produced by an ECDSASigner.
type ECDSAVerifier struct {
	key *ecdsa.PublicKey
}

// NewECDSAVerifier constructs a verifier for the specified public key.
func NewECDSAVerifier(key *ecdsa.PublicKey) (*ECDSAVerifier, error) {
	if key == nil {
		return nil, errors.New("ecdsa public key is required")
	}

	return &ECDSAVerifier{key: key}, nil
}

// Verify checks the signature conforms to our standards and was produced
// for this message by the verifier's key.
func (v *ECDSAVerifier) Verify(message []byte, sig []byte) error {
	if len(sig) != crypto.SignatureLength {
		return ErrInvalidSignature
	}

	// Check the signature values are valid.
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[crypto.RecoveryIDOffset], r, s, false) {
		return ErrInvalidSignature
	}

	data := stamp(message)
	if !crypto.VerifySignature(crypto.FromECDSAPub(v.key), data, sig[:crypto.RecoveryIDOffset]) {
		return ErrInvalidSignature
	}

	return nil
}

// =============================================================================

// LoadECDSAPrivateKey reads a hex encoded secp256k1 private key file.
func LoadECDSAPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	return crypto.LoadECDSA(path)
}

// SaveECDSAKeyPair writes the private key as hex and the uncompressed public
// key as a 0x prefixed hex string.
func SaveECDSAKeyPair(privatePath string, publicPath string, key *ecdsa.PrivateKey) error {
	if err := crypto.SaveECDSA(privatePath, key); err != nil {
		return err
	}

	pub := hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey))
	return os.WriteFile(publicPath, []byte(pub+"\n"), 0644)
}

// LoadECDSAPublicKey reads a 0x prefixed hex encoded uncompressed public key.
func LoadECDSAPublicKey(path string) (*ecdsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw, err := hexutil.Decode(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}

	return crypto.UnmarshalPubkey(raw)
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the message with the
// ledger stamp embedded into the final hash.
func stamp(message []byte) []byte {

	// Hash the message into a 32 byte array. This will provide
	// a data length consistency with all data.
	msgHash := crypto.Keccak256(message)

	// This stamp is used so signatures we produce when signing data
	// are always unique to the donation ledger.
	stamp := []byte("\x19Donation Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, msgHash)
}
