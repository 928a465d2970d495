package signing

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"

	"github.com/99designs/keyring"
)

// KeyStore owns the process signing identity: one ECDSA P-256 key pair,
// loaded once at start and immutable afterwards. Backends: OS keyring, flat
// PEM file, or a PEM-valued environment variable. When no key exists yet a
// fresh pair is generated and persisted; the env backend cannot persist, so
// its generated keys are ephemeral.
type KeyStore struct {
	Backend     string // "keyring", "file", or "env"
	ServiceName string // keyring service name
	KeyID       string // keyring item key
	KeyFile     string // file backend path
	EnvVar      string // env backend variable name

	logger *slog.Logger
}

const defaultKeyID = "evidence-signing-key"

func NewKeyStore(backend, serviceName, keyFile string, logger *slog.Logger) *KeyStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyStore{
		Backend:     backend,
		ServiceName: serviceName,
		KeyID:       defaultKeyID,
		KeyFile:     keyFile,
		EnvVar:      "EVIDENCE_SIGNING_KEY_PEM",
		logger:      logger.With("component", "keystore"),
	}
}

// Load returns the persisted key pair, generating and persisting a new one
// when none exists. Malformed persisted key material is a CryptoError, not a
// reason to silently mint a new identity.
func (ks *KeyStore) Load() (*ecdsa.PrivateKey, error) {
	switch ks.Backend {
	case "keyring":
		return ks.loadKeyring()
	case "file":
		return ks.loadFile()
	case "env":
		return ks.loadEnv()
	default:
		return nil, fmt.Errorf("unknown keystore backend %q", ks.Backend)
	}
}

func (ks *KeyStore) loadKeyring() (*ecdsa.PrivateKey, error) {
	ring, err := keyring.Open(keyring.Config{ServiceName: ks.ServiceName})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	item, err := ring.Get(ks.KeyID)
	if err == nil {
		return decodePrivateKeyPEM(item.Data)
	}
	key, pemBytes, err := generateKeyPEM()
	if err != nil {
		return nil, err
	}
	if err := ring.Set(keyring.Item{Key: ks.KeyID, Data: pemBytes}); err != nil {
		return nil, fmt.Errorf("store key in keyring: %w", err)
	}
	ks.logger.Warn("generated new signing key pair", "backend", "keyring", "key_id", ks.KeyID)
	return key, nil
}

func (ks *KeyStore) loadFile() (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(ks.KeyFile)
	if err == nil {
		return decodePrivateKeyPEM(data)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key, pemBytes, err := generateKeyPEM()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(ks.KeyFile, pemBytes, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	ks.logger.Warn("generated new signing key pair", "backend", "file", "path", ks.KeyFile)
	return key, nil
}

func (ks *KeyStore) loadEnv() (*ecdsa.PrivateKey, error) {
	if pemStr := os.Getenv(ks.EnvVar); pemStr != "" {
		return decodePrivateKeyPEM([]byte(pemStr))
	}
	key, _, err := generateKeyPEM()
	if err != nil {
		return nil, err
	}
	// Ephemeral: lost on restart, which invalidates signing continuity for
	// future records. Known operational risk, not a correctness bug.
	ks.logger.Warn("generated ephemeral signing key pair, set "+ks.EnvVar+" to persist", "backend", "env")
	return key, nil
}

func generateKeyPEM() (*ecdsa.PrivateKey, []byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate P-256 key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal private key: %w", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return key, pemBytes, nil
}

func decodePrivateKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in key material")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not ECDSA")
		}
		return ecKey, nil
	}
	ecKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return ecKey, nil
}
