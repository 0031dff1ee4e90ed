package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyFileName      = "master.key"
	pbkdf2Iterations = 100000
)

// SecurityManager encrypts credentials before they touch the disk
type SecurityManager interface {
	EncryptCredential(plaintext string) (string, error)
	DecryptCredential(ciphertext string) (string, error)
	SecureKeyExists() bool
	ClearSecurityData() error
}

// AESSecurityManager implements SecurityManager using AES-256-GCM with a key
// derived by PBKDF2 from a stored salt and a machine-specific passphrase.
type AESSecurityManager struct {
	keyPath    string
	masterKey  []byte
	keyDerived bool
	passphrase func() string
}

// NewSecurityManager loads or creates the key material under dir.
func NewSecurityManager(dir string) (*AESSecurityManager, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create security directory %s: %w", dir, err)
	}

	manager := &AESSecurityManager{
		keyPath:    filepath.Join(dir, keyFileName),
		passphrase: machinePassphrase,
	}

	if err := manager.initializeEncryptionKey(); err != nil {
		return nil, fmt.Errorf("failed to initialize encryption key: %w", err)
	}
	return manager, nil
}

func (s *AESSecurityManager) initializeEncryptionKey() error {
	if _, err := os.Stat(s.keyPath); errors.Is(err, fs.ErrNotExist) {
		return s.GenerateSecureKey()
	}
	return s.loadExistingKey()
}

func (s *AESSecurityManager) loadExistingKey() error {
	keyData, err := os.ReadFile(s.keyPath)
	if err != nil {
		return fmt.Errorf("failed to read master key file: %w", err)
	}

	salt, err := hex.DecodeString(string(keyData))
	if err != nil {
		return fmt.Errorf("failed to decode key material: %w", err)
	}

	s.deriveKey(salt)
	return nil
}

func (s *AESSecurityManager) deriveKey(salt []byte) {
	s.masterKey = pbkdf2.Key([]byte(s.passphrase()), salt, pbkdf2Iterations, 32, sha256.New)
	s.keyDerived = true
}

func machinePassphrase() string {
	hostname, _ := os.Hostname()
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	return fmt.Sprintf("storefront-security-%s-%s", hostname, username)
}

// GenerateSecureKey writes a fresh salt and derives a new key from it.
// Anything encrypted with the previous key becomes unreadable.
func (s *AESSecurityManager) GenerateSecureKey() error {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate random salt: %w", err)
	}

	if err := os.WriteFile(s.keyPath, []byte(hex.EncodeToString(salt)), 0600); err != nil {
		return fmt.Errorf("failed to write key material: %w", err)
	}

	s.deriveKey(salt)
	return nil
}

// SecureKeyExists checks if encryption key material is available
func (s *AESSecurityManager) SecureKeyExists() bool {
	_, err := os.Stat(s.keyPath)
	return err == nil
}

func (s *AESSecurityManager) gcm() (cipher.AEAD, error) {
	if !s.keyDerived {
		return nil, fmt.Errorf("encryption key not available")
	}
	block, err := aes.NewCipher(s.masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// EncryptCredential seals plaintext and returns it base64 encoded with the
// nonce prepended.
func (s *AESSecurityManager) EncryptCredential(plaintext string) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptCredential reverses EncryptCredential
func (s *AESSecurityManager) DecryptCredential(ciphertext string) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

// ClearSecurityData wipes the key from memory and removes the key file.
func (s *AESSecurityManager) ClearSecurityData() error {
	for i := range s.masterKey {
		s.masterKey[i] = 0
	}
	s.masterKey = nil
	s.keyDerived = false

	if err := os.Remove(s.keyPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove security key file: %w", err)
	}
	return nil
}
