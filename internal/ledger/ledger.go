// ledger.go - Ledger state store for issued credentials.
//
// The Store records all issued credentials keyed by certificate hash, with a
// secondary index by issuer address, plus the set of consumed nullifiers.
// Records are never deleted; revocation only flips status, and only for the
// original issuer. The whole state is persisted as one snapshot under a
// single key of the pluggable store.

package ledger

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"

	"privatediploma/internal/credential"
	"privatediploma/internal/store"
)

// SnapshotKey is the key the ledger snapshot is persisted under.
const SnapshotKey = "ledger"

// Store is the canonical ledger state: credential records, consumed
// nullifiers, and the last wallet session.
type Store struct {
	mu          sync.Mutex
	records     map[string]*credential.CredentialRecord
	byIssuer    map[string][]string
	nullifiers  map[string]bool
	lastSession *credential.WalletSession
	kv          store.KV
}

// snapshot is the single serialized record written to the backing store.
type snapshot struct {
	Records     map[string]*credential.CredentialRecord `json:"records"`
	Nullifiers  []string                                `json:"nullifiers"`
	LastSession *credential.WalletSession               `json:"last_session,omitempty"`
}

// NewStore creates a ledger backed by kv, loading a previous snapshot if one
// exists.
func NewStore(kv store.KV) (*Store, error) {
	s := &Store{
		records:    make(map[string]*credential.CredentialRecord),
		byIssuer:   make(map[string][]string),
		nullifiers: make(map[string]bool),
		kv:         kv,
	}
	b, err := kv.Get(SnapshotKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	for hash, rec := range snap.Records {
		s.records[hash] = rec
		s.byIssuer[rec.IssuerAddress] = append(s.byIssuer[rec.IssuerAddress], hash)
	}
	for _, nf := range snap.Nullifiers {
		s.nullifiers[nf] = true
	}
	s.lastSession = snap.LastSession
	return s, nil
}

// persist writes the current state as one snapshot. Callers hold s.mu.
func (s *Store) persist() error {
	snap := snapshot{
		Records:     s.records,
		Nullifiers:  make([]string, 0, len(s.nullifiers)),
		LastSession: s.lastSession,
	}
	for nf := range s.nullifiers {
		snap.Nullifiers = append(snap.Nullifiers, nf)
	}
	b, err := json.Marshal(&snap)
	if err != nil {
		return err
	}
	return s.kv.Put(SnapshotKey, b)
}

// Issue inserts a new credential record with status valid. Returns
// ErrDuplicateCertificate if the certificate hash already exists.
func (s *Store) Issue(rec *credential.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.CertificateHash]; exists {
		return credential.ErrDuplicateCertificate
	}
	cp := *rec
	cp.Status = credential.StatusValid
	s.records[cp.CertificateHash] = &cp
	s.byIssuer[cp.IssuerAddress] = append(s.byIssuer[cp.IssuerAddress], cp.CertificateHash)
	return s.persist()
}

// Revoke flips a record to revoked. Fails with ErrRecordNotFound if the hash
// is unknown and ErrUnauthorizedRevoke if requester is not the original
// issuer. Idempotent for the original issuer.
func (s *Store) Revoke(certificateHash, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, exists := s.records[certificateHash]
	if !exists {
		return credential.ErrRecordNotFound
	}
	if rec.IssuerAddress != requester {
		return credential.ErrUnauthorizedRevoke
	}
	if rec.Status == credential.StatusRevoked {
		return nil
	}
	rec.Status = credential.StatusRevoked
	return s.persist()
}

// Query returns a copy of the record for the given certificate hash, or
// ErrRecordNotFound.
func (s *Store) Query(certificateHash string) (*credential.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, exists := s.records[certificateHash]
	if !exists {
		return nil, credential.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

// QueryByIssuer returns copies of all records issued by the given address.
// Order is not significant.
func (s *Store) QueryByIssuer(address string) []*credential.CredentialRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	hashes := s.byIssuer[address]
	out := make([]*credential.CredentialRecord, 0, len(hashes))
	for _, h := range hashes {
		cp := *s.records[h]
		out = append(out, &cp)
	}
	return out
}

// IsNullifierUsed reports whether the nullifier has been consumed.
func (s *Store) IsNullifierUsed(nullifier []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nullifiers[hex.EncodeToString(nullifier)]
}

// MarkNullifierUsed consumes a nullifier. Returns ErrNullifierAlreadyUsed if
// it was consumed before; a consumed nullifier can never verify again.
func (s *Store) MarkNullifierUsed(nullifier []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hex.EncodeToString(nullifier)
	if s.nullifiers[key] {
		return credential.ErrNullifierAlreadyUsed
	}
	s.nullifiers[key] = true
	return s.persist()
}

// SetLastSession records the most recent wallet session in the snapshot, or
// clears it when session is nil.
func (s *Store) SetLastSession(session *credential.WalletSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSession = session
	return s.persist()
}

// LastSession returns the persisted wallet session, or nil.
func (s *Store) LastSession() *credential.WalletSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSession == nil {
		return nil
	}
	cp := *s.lastSession
	return &cp
}

// Len returns the number of issued records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
