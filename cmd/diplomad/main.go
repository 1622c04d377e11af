// main.go - PrivateDiploma daemon.
//
// Wires the ledger store, transaction simulator, wallet manager, and REST
// API together, and optionally runs an end-to-end demonstration scenario:
//   - an institution issues N diplomas
//   - a holder proves possession and a verifier checks the proof
//   - a replayed proof is rejected
//   - the institution revokes a credential and verification fails
//
// Usage:
//   diplomad [-config diplomad.json] [-scenario]
package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"privatediploma/internal/credential"
	"privatediploma/internal/diploma"
	"privatediploma/internal/ledger"
	"privatediploma/internal/store"
	"privatediploma/internal/txsim"
	"privatediploma/internal/wallet"

	"github.com/rs/zerolog"
)

const version = "0.2.0"

func main() {
	configPath := flag.String("config", "diplomad.json", "path to config file")
	runScenario := flag.Bool("scenario", false, "run the demo scenario before serving")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("config error: %v\n", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("config invalid: %v\n", err)
		return
	}

	log, closeLog, err := NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Printf("logger error: %v\n", err)
		return
	}
	defer closeLog()

	kv, err := store.NewFile(cfg.StoreDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	ledgerStore, err := ledger.NewStore(kv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load ledger snapshot")
	}

	simOpts := []txsim.Option{txsim.WithMaxPolls(cfg.MaxPollRetries)}
	if cfg.StageDelayMs > 0 {
		delay := time.Duration(cfg.StageDelayMs) * time.Millisecond
		simOpts = append(simOpts, txsim.WithDelay(func(txsim.Stage) time.Duration { return delay }))
	}
	sim := txsim.New(simOpts...)

	wallets := wallet.NewManager([]byte(cfg.SessionSecret), time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	svc := diploma.NewService(ledgerStore, sim, log)

	metrics := NewMetricsCollector()
	health := NewHealthChecker(version)
	health.RegisterComponent("ledger", func() error {
		_, err := kv.Get(ledger.SnapshotKey)
		if err == store.ErrKeyNotFound {
			return nil
		}
		return err
	})

	if last := ledgerStore.LastSession(); last != nil {
		log.Info().Str("address", last.Address).Msg("restored previous wallet session")
	}

	if *runScenario {
		if err := runDemoScenario(cfg, svc, wallets, metrics, log); err != nil {
			log.Fatal().Err(err).Msg("scenario failed")
		}
	}

	limiter := NewIssuerRateLimiter(cfg.RatePerSecond, cfg.RateBurst)
	api := diploma.NewServer(svc, wallets, limiter, log)

	mux := http.NewServeMux()
	mux.Handle("/", api.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, health.CheckHealth())
	})
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.SetGauge(MetricLedgerSize, float64(ledgerStore.Len()))
		writeMetrics(w, metrics.Summary())
	})

	log.Info().Str("addr", cfg.ListenAddr).Msg("diplomad listening")
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// runDemoScenario exercises the full issue/verify/revoke workflow.
func runDemoScenario(cfg *Config, svc *diploma.Service, wallets *wallet.Manager, metrics *MetricsCollector, log zerolog.Logger) error {
	log.Info().Int("diplomas", cfg.NumDiplomas).Msg("running demo scenario")

	session, _, err := wallets.Connect()
	if err != nil {
		return fmt.Errorf("wallet connect failed: %w", err)
	}
	issuerAddr := session.Address
	if err := svc.Ledger().SetLastSession(session); err != nil {
		return fmt.Errorf("session persist failed: %w", err)
	}

	issued := make([]*diploma.IssuedCredential, 0, cfg.NumDiplomas)
	witnesses := make([]*credential.DiplomaData, 0, cfg.NumDiplomas)
	for i := 0; i < cfg.NumDiplomas; i++ {
		data := &credential.DiplomaData{
			StudentName: fmt.Sprintf("Student %d", i+1),
			StudentID:   fmt.Sprintf("S-%04d", i+1),
			DegreeType:  "BSc",
			Department:  "Computer Science",
			GPA:         "3.8",
			GraduatedAt: time.Now().UTC(),
		}
		start := time.Now()
		cred, err := svc.Issue(issuerAddr, data)
		if err != nil {
			metrics.Increment(MetricErrorCount)
			return fmt.Errorf("issuance failed: %w", err)
		}
		metrics.Increment(MetricIssuedCount)
		metrics.RecordDuration(MetricConfirmationTime, time.Since(start))
		issued = append(issued, cred)
		witnesses = append(witnesses, data)
	}

	// Holder proves possession of the first diploma; verifier accepts it.
	proof, err := svc.Prove(witnesses[0], issued[0].Rho, issued[0].R, issued[0].Record.CertificateHash)
	if err != nil {
		return fmt.Errorf("proof assembly failed: %w", err)
	}
	if err := svc.Verify(proof); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	metrics.Increment(MetricVerifiedCount)

	// Replaying the same proof must fail: the nullifier is consumed.
	if err := svc.Verify(proof); err == nil {
		return fmt.Errorf("replayed proof unexpectedly accepted")
	}
	log.Info().Msg("replayed proof rejected as expected")

	// The issuer revokes the first diploma; a fresh proof must now fail.
	if err := svc.Revoke(issuerAddr, issued[0].Record.CertificateHash); err != nil {
		return fmt.Errorf("revocation failed: %w", err)
	}
	metrics.Increment(MetricRevokedCount)
	fresh, err := svc.Prove(witnesses[0], issued[0].Rho, issued[0].R, issued[0].Record.CertificateHash)
	if err != nil {
		return fmt.Errorf("proof assembly failed: %w", err)
	}
	if err := svc.Verify(fresh); err == nil {
		return fmt.Errorf("proof for revoked credential unexpectedly accepted")
	}
	log.Info().Msg("revoked credential rejected as expected")

	wallets.Disconnect()
	log.Info().Msg("demo scenario complete")
	return nil
}
