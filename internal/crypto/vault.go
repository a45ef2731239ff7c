// Package crypto implements the Credential Vault: per-user secrets encrypted
// under a process-wide master key, returning plaintext only via explicit
// fetch (SPEC_FULL.md §0/§1, encryption format in §6).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"github.com/signalbridge/platform/internal/apperr"
	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
	"github.com/signalbridge/platform/internal/repository"
)

const (
	pbkdfSalt       = "trading-platform-salt"
	pbkdfIterations = 100000
	pbkdfKeyLength  = 32
	cipherVersion   = byte(1)
)

// Vault encrypts and decrypts credentials under a single in-memory AEAD
// cipher derived from the master key. It is read-only after initialization
// except for RotateMasterKey (§5 "Shared resources").
type Vault struct {
	store *repository.Store
	gcm   cipher.AEAD
}

// New derives the AEAD cipher from masterKey via
// PBKDF2(SHA-256, masterKey, salt, 100000 iters, 32 bytes), exactly the KDF
// parameters of the original credential_manager.py.
func New(store *repository.Store, masterKey string) (*Vault, error) {
	gcm, err := newGCM(masterKey)
	if err != nil {
		return nil, apperr.Crypto("failed to initialize vault cipher", err)
	}
	return &Vault{store: store, gcm: gcm}, nil
}

func newGCM(masterKey string) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(masterKey), []byte(pbkdfSalt), pbkdfIterations, pbkdfKeyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// encrypt produces a self-delimiting, version-tagged ciphertext: [version
// byte][nonce][sealed data].
func (v *Vault) encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, v.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed := v.gcm.Seal(nil, nonce, []byte(plaintext), nil)

	out := make([]byte, 0, 1+len(nonce)+len(sealed))
	out = append(out, cipherVersion)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func (v *Vault) decrypt(ciphertext []byte) (string, error) {
	if len(ciphertext) < 1 || ciphertext[0] != cipherVersion {
		return "", errors.New("unsupported ciphertext version")
	}
	nonceSize := v.gcm.NonceSize()
	if len(ciphertext) < 1+nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce := ciphertext[1 : 1+nonceSize]
	sealed := ciphertext[1+nonceSize:]

	plaintext, err := v.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// StoreCredential upserts the encrypted secret under (user, broker, type).
func (v *Vault) StoreCredential(userID uuid.UUID, brokerID *uuid.UUID, credType domain.CredentialType, plaintext string) error {
	ciphertext, err := v.encrypt(plaintext)
	if err != nil {
		return apperr.Crypto("failed to encrypt credential", err)
	}
	return v.store.Credentials.Upsert(domain.Credential{
		ID:         uuid.New(),
		UserID:     userID,
		BrokerID:   brokerID,
		Type:       credType,
		Ciphertext: ciphertext,
		UpdatedAt:  time.Now(),
	})
}

// Retrieve fetches and decrypts a single credential.
func (v *Vault) Retrieve(userID uuid.UUID, brokerID *uuid.UUID, credType domain.CredentialType) (string, error) {
	cred, err := v.store.Credentials.Get(userID, brokerID, credType)
	if err != nil {
		return "", err
	}
	plaintext, err := v.decrypt(cred.Ciphertext)
	if err != nil {
		return "", apperr.Crypto("failed to decrypt credential", err)
	}
	return plaintext, nil
}

func (v *Vault) Delete(id, userID uuid.UUID) error {
	return v.store.Credentials.Delete(id, userID)
}

// RotateMasterKey decrypts every credential under the current cipher,
// re-encrypts under newKey, and swaps the vault's active cipher atomically —
// the Go analogue of credential_manager.py's CredentialRotation.
func (v *Vault) RotateMasterKey(newKey string) error {
	newGCMCipher, err := newGCM(newKey)
	if err != nil {
		return apperr.Crypto("failed to derive new master key cipher", err)
	}

	creds, err := v.store.Credentials.ListAllForRotation()
	if err != nil {
		return err
	}

	reencrypted := make(map[uuid.UUID][]byte, len(creds))
	for _, c := range creds {
		plaintext, err := v.decrypt(c.Ciphertext)
		if err != nil {
			return apperr.Crypto("failed to decrypt credential during rotation", err)
		}

		nonce := make([]byte, newGCMCipher.NonceSize())
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return err
		}
		sealed := newGCMCipher.Seal(nil, nonce, []byte(plaintext), nil)
		out := make([]byte, 0, 1+len(nonce)+len(sealed))
		out = append(out, cipherVersion)
		out = append(out, nonce...)
		out = append(out, sealed...)
		reencrypted[c.ID] = out
	}

	err = database.WithTransaction(v.store.DB().Conn(), func(tx *sql.Tx) error {
		for id, ciphertext := range reencrypted {
			if err := v.store.Credentials.ReplaceCiphertext(tx, id, ciphertext); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	v.gcm = newGCMCipher
	return nil
}
