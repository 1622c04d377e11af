// errors.go - Error kinds raised by the credential core.
//
// All of these are terminal for the operation that raised them; nothing in
// this module retries automatically. Callers present the failure and let the
// user restart.

package credential

import "errors"

var (
	// ErrDuplicateCertificate is returned when issuing a certificate hash
	// that already exists on the ledger.
	ErrDuplicateCertificate = errors.New("duplicate certificate: hash already issued")

	// ErrRecordNotFound is returned when a certificate hash has no record.
	ErrRecordNotFound = errors.New("credential record not found")

	// ErrUnauthorizedRevoke is returned when a revocation request comes from
	// any address other than the original issuer.
	ErrUnauthorizedRevoke = errors.New("unauthorized revoke: requester is not the issuer")

	// ErrNullifierAlreadyUsed is returned when a verification reuses a
	// consumed nullifier.
	ErrNullifierAlreadyUsed = errors.New("nullifier already used")

	// ErrRandomSourceUnavailable is returned when crypto/rand fails. There is
	// no weak fallback.
	ErrRandomSourceUnavailable = errors.New("random source unavailable")

	// ErrTransactionTimeout is returned when a simulated transaction exceeds
	// its poll-attempt budget before reaching a terminal stage.
	ErrTransactionTimeout = errors.New("transaction timeout")

	// ErrTransactionFailed is returned when a simulated transaction reaches
	// the failed terminal stage.
	ErrTransactionFailed = errors.New("transaction failed")
)
