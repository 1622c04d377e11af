package diploma

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privatediploma/internal/credential"
	"privatediploma/internal/wallet"
)

// denyAll rejects every request, for exercising the rate-limit path.
type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newTestServer(t *testing.T, limiter Limiter) (*Server, http.Handler) {
	t.Helper()
	svc := newTestService(t)
	wallets := wallet.NewManager([]byte("test-secret"), time.Hour)
	srv := NewServer(svc, wallets, limiter, zerolog.Nop())
	return srv, srv.Handler()
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func issueOne(t *testing.T, handler http.Handler, issuer string) IssueResponse {
	t.Helper()
	rec := postJSON(t, handler, "/issue", IssueRequest{
		IssuerAddress: issuer,
		StudentName:   "Alice Example",
		StudentID:     "S-0001",
		DegreeType:    "BSc",
		Department:    "Computer Science",
		GPA:           "3.8",
		GraduatedAt:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp IssueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestIssueEndpoint(t *testing.T) {
	_, handler := newTestServer(t, nil)

	resp := issueOne(t, handler, "0xissuer")
	require.NotNil(t, resp.Record)
	assert.Equal(t, credential.StatusValid, resp.Record.Status)
	assert.NotEmpty(t, resp.Rho)
	assert.NotEmpty(t, resp.R)

	// Record is queryable.
	req := httptest.NewRequest("GET", "/record?hash="+resp.Record.CertificateHash, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIssueValidation(t *testing.T) {
	_, handler := newTestServer(t, nil)

	rec := postJSON(t, handler, "/issue", IssueRequest{StudentID: "S-0001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueRateLimited(t *testing.T) {
	_, handler := newTestServer(t, denyAll{})

	rec := postJSON(t, handler, "/issue", IssueRequest{
		IssuerAddress: "0xissuer",
		StudentID:     "S-0001",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRecordNotFound(t *testing.T) {
	_, handler := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/record?hash=missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordsByIssuer(t *testing.T) {
	_, handler := newTestServer(t, nil)
	issueOne(t, handler, "0xissuer")

	req := httptest.NewRequest("GET", "/records?issuer=0xissuer", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []*credential.CredentialRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 1)
}

func TestRevokeEndpoint(t *testing.T) {
	srv, handler := newTestServer(t, nil)
	resp := issueOne(t, handler, "0xissuer")

	rec := postJSON(t, handler, "/revoke", RevokeRequest{
		RequesterAddress: "wrong-address",
		CertificateHash:  resp.Record.CertificateHash,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postJSON(t, handler, "/revoke", RevokeRequest{
		RequesterAddress: "0xissuer",
		CertificateHash:  resp.Record.CertificateHash,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := srv.svc.Ledger().Query(resp.Record.CertificateHash)
	require.NoError(t, err)
	assert.Equal(t, credential.StatusRevoked, got.Status)
}

func TestVerifyEndpointReplay(t *testing.T) {
	srv, handler := newTestServer(t, nil)
	resp := issueOne(t, handler, "0xissuer")

	// Assemble a proof holder-side against the issued record.
	data := &credential.DiplomaData{
		StudentName: "Alice Example",
		StudentID:   "S-0001",
		DegreeType:  "BSc",
		Department:  "Computer Science",
		GPA:         "3.8",
		GraduatedAt: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	rho, ok := new(big.Int).SetString(resp.Rho, 10)
	require.True(t, ok)
	r, ok := new(big.Int).SetString(resp.R, 10)
	require.True(t, ok)
	proof, err := srv.svc.Prove(data, rho, r, resp.Record.CertificateHash)
	require.NoError(t, err)

	rec := postJSON(t, handler, "/verify", proof)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Same proof again: nullifier consumed.
	rec = postJSON(t, handler, "/verify", proof)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWalletEndpoints(t *testing.T) {
	srv, handler := newTestServer(t, nil)

	rec := postJSON(t, handler, "/wallet/connect", struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.svc.Ledger().LastSession())

	rec = postJSON(t, handler, "/wallet/disconnect", struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, srv.svc.Ledger().LastSession())
}
