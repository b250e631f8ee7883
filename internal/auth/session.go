package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errInvalidSession = errors.New("invalid session")

// Session is the state carried by the session cookie
type Session struct {
	Login  string    `json:"login"`
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

// sealer encrypts and authenticates session values
type sealer struct {
	key [32]byte
}

func newSealer(secret string) *sealer {
	return &sealer{key: sha256.Sum256([]byte(secret))}
}

// Seal returns the encrypted, URL-safe form of s
func (s *sealer) Seal(session Session) (string, error) {
	plain, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal and rejects expired sessions
func (s *sealer) Open(value string, now time.Time) (Session, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return Session{}, errInvalidSession
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return Session{}, errInvalidSession
	}

	var session Session
	if err := json.Unmarshal(plain, &session); err != nil {
		return Session{}, errInvalidSession
	}
	if session.Token == "" || !now.Before(session.Expiry) {
		return Session{}, errInvalidSession
	}
	return session, nil
}
