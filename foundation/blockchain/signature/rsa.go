package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// RSAKeyBits is the size of the keys produced by GenerateRSAKey.
const RSAKeyBits = 2048

// pssOptions uses the largest salt the key allows when signing and detects
// the salt length when verifying.
var pssOptions = rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto}

// RSASigner signs messages with RSA-PSS using sha256 as the message digest.
type RSASigner struct {
	key *rsa.PrivateKey
}

// NewRSASigner constructs a signer for the specified private key.
func NewRSASigner(key *rsa.PrivateKey) (*RSASigner, error) {
	if key == nil {
		return nil, errors.New("rsa private key is required")
	}

	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("validate rsa key: %w", err)
	}

	return &RSASigner{key: key}, nil
}

// Sign produces a probabilistic signature over the message. Signing the
// same message twice produces different signatures that both verify.
func (s *RSASigner) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)

	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &pssOptions)
	if err != nil {
		return nil, fmt.Errorf("sign pss: %w", err)
	}

	return sig, nil
}

// Verifier returns the verifier for the public half of the signer's key.
func (s *RSASigner) Verifier() *RSAVerifier {
	return &RSAVerifier{key: &s.key.PublicKey}
}

// RSAVerifier checks RSA-PSS signatures.
type RSAVerifier struct {
	key *rsa.PublicKey
}

// NewRSAVerifier constructs a verifier for the specified public key.
func NewRSAVerifier(key *rsa.PublicKey) (*RSAVerifier, error) {
	if key == nil {
		return nil, errors.New("rsa public key is required")
	}

	return &RSAVerifier{key: key}, nil
}

// Verify checks the signature was produced for this message by the private
// key matching the verifier's public key.
func (v *RSAVerifier) Verify(message []byte, sig []byte) error {
	digest := sha256.Sum256(message)

	if err := rsa.VerifyPSS(v.key, crypto.SHA256, digest[:], sig, &pssOptions); err != nil {
		return ErrInvalidSignature
	}

	return nil
}

// =============================================================================

// GenerateRSAKey produces a new private key of RSAKeyBits size.
func GenerateRSAKey() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, RSAKeyBits)
}

// SaveRSAKeyPair writes the private key as a PKCS#8 PEM file and the public
// key as a SubjectPublicKeyInfo PEM file.
func SaveRSAKeyPair(privatePath string, publicPath string, key *rsa.PrivateKey) error {
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := os.WriteFile(privatePath, privPEM, 0600); err != nil {
		return err
	}

	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return os.WriteFile(publicPath, pubPEM, 0644)
}

// LoadRSAPrivateKey reads a PEM encoded PKCS#8 or PKCS#1 private key.
func LoadRSAPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseRSAPrivateKey(data)
}

// ParseRSAPrivateKey decodes a PEM encoded PKCS#8 or PKCS#1 private key.
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no pem block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, not rsa", key)
	}

	return rsaKey, nil
}

// LoadRSAPublicKey reads a PEM encoded SubjectPublicKeyInfo or PKCS#1
// public key.
func LoadRSAPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseRSAPublicKey(data)
}

// ParseRSAPublicKey decodes a PEM encoded SubjectPublicKeyInfo or PKCS#1
// public key.
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no pem block found")
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not rsa", key)
	}

	return rsaKey, nil
}
