// types.go - Record and session types for the PrivateDiploma protocol.

package credential

import "time"

// Status is the lifecycle state of an issued credential.
type Status string

const (
	StatusValid   Status = "valid"
	StatusRevoked Status = "revoked"
)

// CredentialRecord is the public, on-ledger form of an issued diploma.
// It contains only digests; the underlying student data never appears here.
// Records are keyed by CertificateHash, which is immutable after issuance,
// and are never deleted. Only the original IssuerAddress may revoke.
type CredentialRecord struct {
	CertificateHash       string    `json:"certificate_hash"`
	StudentDataCommitment string    `json:"student_data_commitment"`
	IssuerAddress         string    `json:"issuer_address"`
	DegreeTypeHash        string    `json:"degree_type_hash"`
	DepartmentHash        string    `json:"department_hash"`
	IssuedAt              time.Time `json:"issued_at"`
	Status                Status    `json:"status"`
}

// DiplomaData is the witness: the private student record a commitment binds
// to. It is held by the issuer and the credential holder and is never
// persisted or transmitted by this package.
type DiplomaData struct {
	StudentName string
	StudentID   string
	DegreeType  string
	Department  string
	GPA         string
	GraduatedAt time.Time
}

// WalletSession is the ephemeral state of a connected wallet. It is created
// on connect and cleared on disconnect; only the last session is kept for
// continuity across restarts.
type WalletSession struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	SessionID string `json:"session_id"`
}
