// crypto.go - Commitments, certificate hashes, and nullifiers.
//
// Commitments use MiMC over the BW6-761 scalar field; public identifiers use
// BLAKE3. All randomness comes from crypto/rand and failures are surfaced,
// never masked.

package credential

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"hash"
	"math/big"
	"time"

	bw6761fr "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	mimcNative "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
	"github.com/zeebo/blake3"
)

// NullifierLen is the byte length of a nullifier token.
const NullifierLen = 32

// fieldDigest reduces an arbitrary-length field to a fixed 32-byte BLAKE3
// digest. A 256-bit digest is always below the 377-bit BW6-761 scalar
// modulus, so it can be absorbed by MiMC as one canonical field element.
func fieldDigest(b []byte) []byte {
	h := blake3.New()
	h.Write(b)
	return h.Sum(nil)
}

// absorb writes b into the MiMC sponge as one full block, left-padded with
// zeros. b must be at most one field element wide; longer inputs are
// digested first.
func absorb(h hash.Hash, b []byte) {
	if len(b) > bw6761fr.Bytes {
		b = fieldDigest(b)
	}
	var block [bw6761fr.Bytes]byte
	copy(block[bw6761fr.Bytes-len(b):], b)
	h.Write(block[:])
}

// Commitment commits the issuer to the private diploma fields:
// cm = Com(name || id || degree || dept || gpa || grad || rho, r).
// Deterministic in its inputs; one-way and avalanche via MiMC.
func Commitment(data *DiplomaData, rho, r *big.Int) []byte {
	h := mimcNative.NewMiMC()
	absorb(h, fieldDigest([]byte(data.StudentName)))
	absorb(h, fieldDigest([]byte(data.StudentID)))
	absorb(h, fieldDigest([]byte(data.DegreeType)))
	absorb(h, fieldDigest([]byte(data.Department)))
	absorb(h, fieldDigest([]byte(data.GPA)))
	absorb(h, fieldDigest([]byte(data.GraduatedAt.UTC().Format(time.RFC3339))))
	absorb(h, rho.Bytes())
	absorb(h, r.Bytes())
	return h.Sum(nil)
}

// CommitmentHex is Commitment encoded for ledger storage.
func CommitmentHex(data *DiplomaData, rho, r *big.Int) string {
	return hex.EncodeToString(Commitment(data, rho, r))
}

// CertificateHash derives the public ledger key for a credential from
// issuer, subject, and issuance time. BLAKE3, 256-bit.
func CertificateHash(issuerAddress, studentID string, issuedAt time.Time) string {
	h := blake3.New()
	h.Write([]byte(issuerAddress))
	h.Write([]byte(studentID))
	h.Write([]byte(issuedAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))
}

// AttributeHash digests a single public metadata attribute (degree type,
// department) for inclusion in a CredentialRecord.
func AttributeHash(attr string) string {
	return hex.EncodeToString(fieldDigest([]byte(attr)))
}

// NewNullifier produces a fresh single-use random token. If the system
// random source is unavailable the call fails; there is no fallback.
func NewNullifier() ([]byte, error) {
	b := make([]byte, NullifierLen)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSourceUnavailable, err)
	}
	return b, nil
}

// NullifierFor derives a deterministic nullifier from a holder secret and the
// commitment randomness rho, as a MiMC PRF: nf = PRF_sk(rho). Used when the
// holder must be able to re-derive the token they are about to consume.
func NullifierFor(sk, rho []byte) []byte {
	h := mimcNative.NewMiMC()
	absorb(h, fieldDigest(sk))
	absorb(h, fieldDigest(rho))
	return h.Sum(nil)
}

// RandomScalar returns a random commitment scalar (rho or r).
func RandomScalar() (*big.Int, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSourceUnavailable, err)
	}
	return new(big.Int).SetBytes(b), nil
}
