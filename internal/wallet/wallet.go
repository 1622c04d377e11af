// Package wallet manages ephemeral wallet sessions for the PrivateDiploma
// protocol. A session binds an ed25519 keypair to a ledger address; the core
// consumes only the address string and the signing capability. Session
// tokens are HS256 JWTs so the serving layer can authenticate follow-up
// requests without holding the session in memory.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/blake3"

	"privatediploma/internal/credential"
)

// addressLen is the byte length of a derived wallet address.
const addressLen = 20

// Claims are the session token claims.
type Claims struct {
	Address   string `json:"address"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Manager creates and tears down wallet sessions. One session at a time,
// matching the one-tab model of the original front end.
type Manager struct {
	mu       sync.Mutex
	secret   []byte
	tokenTTL time.Duration
	session  *credential.WalletSession
	priv     ed25519.PrivateKey
}

// NewManager creates a session manager. secret signs the session tokens.
func NewManager(secret []byte, tokenTTL time.Duration) *Manager {
	return &Manager{secret: secret, tokenTTL: tokenTTL}
}

// AddressFromPublicKey derives the ledger address from an ed25519 public
// key: 0x-prefixed hex of the first 20 bytes of its BLAKE3 digest.
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	h := blake3.New()
	h.Write(pub)
	return "0x" + hex.EncodeToString(h.Sum(nil)[:addressLen])
}

// Connect generates a fresh keypair, opens a session, and returns it with a
// signed session token. A previous session, if any, is replaced.
func (m *Manager) Connect() (*credential.WalletSession, string, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", credential.ErrRandomSourceUnavailable, err)
	}
	sid := make([]byte, 16)
	if _, err := rand.Read(sid); err != nil {
		return nil, "", fmt.Errorf("%w: %v", credential.ErrRandomSourceUnavailable, err)
	}
	session := &credential.WalletSession{
		Address:   AddressFromPublicKey(pub),
		PublicKey: hex.EncodeToString(pub),
		SessionID: hex.EncodeToString(sid),
	}
	token, err := m.issueToken(session)
	if err != nil {
		return nil, "", err
	}
	m.mu.Lock()
	m.session = session
	m.priv = priv
	m.mu.Unlock()
	return session, token, nil
}

// Disconnect clears the session and its key material.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.session = nil
	m.priv = nil
	m.mu.Unlock()
}

// Session returns a copy of the active session, or nil.
func (m *Manager) Session() *credential.WalletSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	cp := *m.session
	return &cp
}

// Sign signs message with the session key. Returns an error if no session is
// active.
func (m *Manager) Sign(message []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.priv == nil {
		return nil, fmt.Errorf("no active wallet session")
	}
	return ed25519.Sign(m.priv, message), nil
}

// Verify checks a signature against a hex-encoded session public key.
func Verify(publicKeyHex string, message, sig []byte) (bool, error) {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid public key")
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig), nil
}

func (m *Manager) issueToken(session *credential.WalletSession) (string, error) {
	now := time.Now()
	claims := Claims{
		Address:   session.Address,
		SessionID: session.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "privatediploma",
			Subject:   session.Address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyToken parses and validates a session token, returning its claims.
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}
