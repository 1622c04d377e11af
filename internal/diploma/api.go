// api.go - REST API for the PrivateDiploma workflow.
//
// Exposes endpoints for issuance, verification, revocation, record lookup,
// and wallet session management. All endpoints validate input; issuance and
// revocation are rate limited per issuer address.

package diploma

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"privatediploma/internal/credential"
	"privatediploma/internal/wallet"
)

// Limiter gates mutating requests per issuer address.
type Limiter interface {
	Allow(key string) bool
}

// Server serves the credentialing workflow over HTTP.
type Server struct {
	svc     *Service
	wallets *wallet.Manager
	limiter Limiter
	log     zerolog.Logger
}

// NewServer creates a Server. limiter may be nil to disable rate limiting.
func NewServer(svc *Service, wallets *wallet.Manager, limiter Limiter, log zerolog.Logger) *Server {
	return &Server{svc: svc, wallets: wallets, limiter: limiter, log: log}
}

// Handler returns the route table.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /issue", srv.handleIssue)
	mux.HandleFunc("POST /verify", srv.handleVerify)
	mux.HandleFunc("POST /revoke", srv.handleRevoke)
	mux.HandleFunc("GET /record", srv.handleRecord)
	mux.HandleFunc("GET /records", srv.handleRecordsByIssuer)
	mux.HandleFunc("POST /wallet/connect", srv.handleWalletConnect)
	mux.HandleFunc("POST /wallet/disconnect", srv.handleWalletDisconnect)
	return mux
}

// IssueRequest is the request body for POST /issue.
type IssueRequest struct {
	IssuerAddress string    `json:"issuer_address"`
	StudentName   string    `json:"student_name"`
	StudentID     string    `json:"student_id"`
	DegreeType    string    `json:"degree_type"`
	Department    string    `json:"department"`
	GPA           string    `json:"gpa"`
	GraduatedAt   time.Time `json:"graduated_at"`
}

// IssueResponse returns the public record plus the commitment randomness the
// holder keeps.
type IssueResponse struct {
	Record *credential.CredentialRecord `json:"record"`
	Rho    string                       `json:"rho"`
	R      string                       `json:"r"`
}

// RevokeRequest is the request body for POST /revoke.
type RevokeRequest struct {
	RequesterAddress string `json:"requester_address"`
	CertificateHash  string `json:"certificate_hash"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, credential.ErrDuplicateCertificate),
		errors.Is(err, credential.ErrNullifierAlreadyUsed):
		status = http.StatusConflict
	case errors.Is(err, credential.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, credential.ErrUnauthorizedRevoke):
		status = http.StatusForbidden
	case errors.Is(err, ErrRevoked),
		errors.Is(err, ErrCommitmentMismatch),
		errors.Is(err, ErrMalformedProof):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, credential.ErrTransactionTimeout):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (srv *Server) allow(w http.ResponseWriter, key string) bool {
	if srv.limiter == nil || srv.limiter.Allow(key) {
		return true
	}
	writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
	return false
}

func (srv *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if req.IssuerAddress == "" || req.StudentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "issuer_address and student_id are required"})
		return
	}
	if !srv.allow(w, req.IssuerAddress) {
		return
	}
	issued, err := srv.svc.Issue(req.IssuerAddress, &credential.DiplomaData{
		StudentName: req.StudentName,
		StudentID:   req.StudentID,
		DegreeType:  req.DegreeType,
		Department:  req.Department,
		GPA:         req.GPA,
		GraduatedAt: req.GraduatedAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, IssueResponse{
		Record: issued.Record,
		Rho:    issued.Rho.String(),
		R:      issued.R.String(),
	})
}

func (srv *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var proof Proof
	if err := json.NewDecoder(r.Body).Decode(&proof); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if err := srv.svc.Verify(&proof); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (srv *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if !srv.allow(w, req.RequesterAddress) {
		return
	}
	if err := srv.svc.Revoke(req.RequesterAddress, req.CertificateHash); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (srv *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hash is required"})
		return
	}
	rec, err := srv.svc.Ledger().Query(hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (srv *Server) handleRecordsByIssuer(w http.ResponseWriter, r *http.Request) {
	issuer := r.URL.Query().Get("issuer")
	if issuer == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "issuer is required"})
		return
	}
	writeJSON(w, http.StatusOK, srv.svc.Ledger().QueryByIssuer(issuer))
}

func (srv *Server) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	session, token, err := srv.wallets.Connect()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := srv.svc.Ledger().SetLastSession(session); err != nil {
		srv.log.Warn().Err(err).Msg("failed to persist wallet session")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"token":   token,
	})
}

func (srv *Server) handleWalletDisconnect(w http.ResponseWriter, r *http.Request) {
	srv.wallets.Disconnect()
	if err := srv.svc.Ledger().SetLastSession(nil); err != nil {
		srv.log.Warn().Err(err).Msg("failed to clear wallet session")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
