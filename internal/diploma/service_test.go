package diploma

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privatediploma/internal/credential"
	"privatediploma/internal/ledger"
	"privatediploma/internal/store"
	"privatediploma/internal/txsim"
)

func newTestService(t *testing.T, simOpts ...txsim.Option) *Service {
	t.Helper()
	ledgerStore, err := ledger.NewStore(store.NewMemory())
	require.NoError(t, err)
	opts := append([]txsim.Option{
		txsim.WithDelay(func(txsim.Stage) time.Duration { return 0 }),
		txsim.WithPollInterval(time.Millisecond),
		txsim.WithMaxPolls(1000),
	}, simOpts...)
	return NewService(ledgerStore, txsim.New(opts...), zerolog.Nop())
}

func testDiploma() *credential.DiplomaData {
	return &credential.DiplomaData{
		StudentName: "Alice Example",
		StudentID:   "S-0001",
		DegreeType:  "BSc",
		Department:  "Computer Science",
		GPA:         "3.8",
		GraduatedAt: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestIssueRecordsCredential(t *testing.T) {
	svc := newTestService(t)

	issued, err := svc.Issue("0xissuer", testDiploma())
	require.NoError(t, err)
	require.NotNil(t, issued.Record)
	require.NotNil(t, issued.Rho)
	require.NotNil(t, issued.R)

	rec, err := svc.Ledger().Query(issued.Record.CertificateHash)
	require.NoError(t, err)
	assert.Equal(t, credential.StatusValid, rec.Status)
	assert.Equal(t, "0xissuer", rec.IssuerAddress)
	assert.Equal(t, issued.Record.StudentDataCommitment, rec.StudentDataCommitment)
}

func TestProveAndVerify(t *testing.T) {
	svc := newTestService(t)
	data := testDiploma()

	issued, err := svc.Issue("0xissuer", data)
	require.NoError(t, err)

	proof, err := svc.Prove(data, issued.Rho, issued.R, issued.Record.CertificateHash)
	require.NoError(t, err)
	require.NoError(t, svc.Verify(proof))
}

func TestVerifyReplayFails(t *testing.T) {
	svc := newTestService(t)
	data := testDiploma()

	issued, err := svc.Issue("0xissuer", data)
	require.NoError(t, err)
	proof, err := svc.Prove(data, issued.Rho, issued.R, issued.Record.CertificateHash)
	require.NoError(t, err)

	require.NoError(t, svc.Verify(proof))
	assert.ErrorIs(t, svc.Verify(proof), credential.ErrNullifierAlreadyUsed)
}

func TestVerifyWrongWitnessFails(t *testing.T) {
	svc := newTestService(t)
	data := testDiploma()

	issued, err := svc.Issue("0xissuer", data)
	require.NoError(t, err)

	forged := testDiploma()
	forged.GPA = "4.0"
	proof, err := svc.Prove(forged, issued.Rho, issued.R, issued.Record.CertificateHash)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Verify(proof), ErrCommitmentMismatch)
}

func TestVerifyUnknownCertificate(t *testing.T) {
	svc := newTestService(t)
	proof := &Proof{CertificateHash: "missing", Commitment: "cm", Nullifier: "00ff"}
	assert.ErrorIs(t, svc.Verify(proof), credential.ErrRecordNotFound)
}

func TestVerifyMalformedNullifier(t *testing.T) {
	svc := newTestService(t)
	data := testDiploma()

	issued, err := svc.Issue("0xissuer", data)
	require.NoError(t, err)
	proof := &Proof{
		CertificateHash: issued.Record.CertificateHash,
		Commitment:      issued.Record.StudentDataCommitment,
		Nullifier:       "not-hex",
	}
	assert.ErrorIs(t, svc.Verify(proof), ErrMalformedProof)
}

func TestRevokeAuthorization(t *testing.T) {
	svc := newTestService(t)
	data := testDiploma()

	issued, err := svc.Issue("0xissuer", data)
	require.NoError(t, err)
	hash := issued.Record.CertificateHash

	assert.ErrorIs(t, svc.Revoke("wrong-address", hash), credential.ErrUnauthorizedRevoke)

	require.NoError(t, svc.Revoke("0xissuer", hash))
	rec, err := svc.Ledger().Query(hash)
	require.NoError(t, err)
	assert.Equal(t, credential.StatusRevoked, rec.Status)

	// Idempotent.
	require.NoError(t, svc.Revoke("0xissuer", hash))
}

func TestVerifyRevokedFails(t *testing.T) {
	svc := newTestService(t)
	data := testDiploma()

	issued, err := svc.Issue("0xissuer", data)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke("0xissuer", issued.Record.CertificateHash))

	proof, err := svc.Prove(data, issued.Rho, issued.R, issued.Record.CertificateHash)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Verify(proof), ErrRevoked)
}

func TestIssueFailsWhenConfirmationFails(t *testing.T) {
	svc := newTestService(t, txsim.WithFailureAt(txsim.StageBroadcasting))

	_, err := svc.Issue("0xissuer", testDiploma())
	assert.ErrorIs(t, err, credential.ErrTransactionFailed)
	assert.Zero(t, svc.Ledger().Len())
}
