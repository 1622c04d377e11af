// service.go - Issuance, proving, verification, and revocation.

package diploma

import (
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"privatediploma/internal/credential"
	"privatediploma/internal/ledger"
	"privatediploma/internal/txsim"
)

var (
	// ErrRevoked is returned when a proof references a revoked credential.
	ErrRevoked = errors.New("credential revoked")

	// ErrCommitmentMismatch is returned when a proof's commitment does not
	// match the on-ledger commitment.
	ErrCommitmentMismatch = errors.New("commitment mismatch")

	// ErrMalformedProof is returned when a proof cannot be decoded.
	ErrMalformedProof = errors.New("malformed proof")
)

// IssuedCredential is the issuer's receipt: the public record plus the
// commitment randomness the holder needs to re-derive the commitment later.
// Rho and R are handed to the holder and never stored on the ledger.
type IssuedCredential struct {
	Record *credential.CredentialRecord
	Rho    *big.Int
	R      *big.Int
}

// Proof is what a holder presents to a verifying party. It reveals the
// certificate hash, the commitment, and a fresh single-use nullifier; the
// underlying student data stays with the holder.
type Proof struct {
	CertificateHash string `json:"certificate_hash"`
	Commitment      string `json:"commitment"`
	Nullifier       string `json:"nullifier"`
}

// Service implements the credentialing workflow over a ledger store and a
// transaction simulator.
type Service struct {
	ledger *ledger.Store
	sim    *txsim.Simulator
	log    zerolog.Logger
}

// NewService creates a Service.
func NewService(ledgerStore *ledger.Store, sim *txsim.Simulator, log zerolog.Logger) *Service {
	return &Service{ledger: ledgerStore, sim: sim, log: log}
}

// Ledger exposes the underlying store for read-side queries.
func (s *Service) Ledger() *ledger.Store {
	return s.ledger
}

// confirm submits a simulated transaction, logs its transitions, and waits
// for a terminal stage.
func (s *Service) confirm(op string) error {
	tx := s.sim.Submit(func(tr txsim.Transition) {
		s.log.Debug().
			Str("op", op).
			Str("from", string(tr.From)).
			Str("to", string(tr.To)).
			Msg("transaction stage")
	})
	return s.sim.Wait(tx)
}

// Issue commits to the private diploma data, waits for simulated
// confirmation, and records the credential on the ledger. The returned
// receipt carries the commitment randomness for the holder.
func (s *Service) Issue(issuerAddress string, data *credential.DiplomaData) (*IssuedCredential, error) {
	rho, err := credential.RandomScalar()
	if err != nil {
		return nil, err
	}
	r, err := credential.RandomScalar()
	if err != nil {
		return nil, err
	}
	issuedAt := time.Now().UTC()
	rec := &credential.CredentialRecord{
		CertificateHash:       credential.CertificateHash(issuerAddress, data.StudentID, issuedAt),
		StudentDataCommitment: credential.CommitmentHex(data, rho, r),
		IssuerAddress:         issuerAddress,
		DegreeTypeHash:        credential.AttributeHash(data.DegreeType),
		DepartmentHash:        credential.AttributeHash(data.Department),
		IssuedAt:              issuedAt,
		Status:                credential.StatusValid,
	}
	if err := s.confirm("issue"); err != nil {
		s.log.Error().Err(err).Str("issuer", issuerAddress).Msg("issuance confirmation failed")
		return nil, err
	}
	if err := s.ledger.Issue(rec); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("issuer", issuerAddress).
		Str("certificate_hash", rec.CertificateHash).
		Msg("credential issued")
	return &IssuedCredential{Record: rec, Rho: rho, R: r}, nil
}

// Prove assembles a holder-side proof: it re-derives the commitment from the
// private data and the issuance randomness and attaches a fresh nullifier.
// The private data never leaves this call.
func (s *Service) Prove(data *credential.DiplomaData, rho, r *big.Int, certificateHash string) (*Proof, error) {
	nf, err := credential.NewNullifier()
	if err != nil {
		return nil, err
	}
	return &Proof{
		CertificateHash: certificateHash,
		Commitment:      credential.CommitmentHex(data, rho, r),
		Nullifier:       hex.EncodeToString(nf),
	}, nil
}

// Verify checks a proof against ledger state and consumes its nullifier.
// Fails if the record is absent or revoked, the commitment does not match,
// or the nullifier was used before.
func (s *Service) Verify(proof *Proof) error {
	rec, err := s.ledger.Query(proof.CertificateHash)
	if err != nil {
		return err
	}
	if rec.Status == credential.StatusRevoked {
		return ErrRevoked
	}
	if rec.StudentDataCommitment != proof.Commitment {
		return ErrCommitmentMismatch
	}
	nf, err := hex.DecodeString(proof.Nullifier)
	if err != nil || len(nf) == 0 {
		return ErrMalformedProof
	}
	if err := s.ledger.MarkNullifierUsed(nf); err != nil {
		return err
	}
	s.log.Info().
		Str("certificate_hash", proof.CertificateHash).
		Msg("credential verified")
	return nil
}

// Revoke flips a credential to revoked after simulated confirmation.
// Issuer-only; idempotent for the original issuer.
func (s *Service) Revoke(requester, certificateHash string) error {
	if err := s.confirm("revoke"); err != nil {
		s.log.Error().Err(err).Str("certificate_hash", certificateHash).Msg("revocation confirmation failed")
		return err
	}
	if err := s.ledger.Revoke(certificateHash, requester); err != nil {
		return err
	}
	s.log.Info().
		Str("requester", requester).
		Str("certificate_hash", certificateHash).
		Msg("credential revoked")
	return nil
}
