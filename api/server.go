package api

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lumenledger/stoa/agora"
	"github.com/lumenledger/stoa/events"
	"github.com/lumenledger/stoa/governance"
	"github.com/lumenledger/stoa/ingest"
	"github.com/lumenledger/stoa/metrics"
	"github.com/lumenledger/stoa/storage"
	"github.com/lumenledger/stoa/validator"
)

// Deps bundles everything a handler needs to read the Ledger Store or
// enqueue a mutator task. It holds no mutable state of its own.
type Deps struct {
	Store      *storage.Store
	Validators *validator.Engine
	Governance *governance.Engine
	Agora      *agora.Client
	Pipeline   *ingest.Pipeline
	Metrics    *metrics.Metrics
	Hub        *events.Hub
	Log        *zap.Logger
}

// Server runs the two HTTP surfaces this service exposes: a public read-only API
// and a private write-only intake port. Each binds its own listener and
// serves on its own goroutine: two listeners with Go's method+pattern
// routing instead of a single dispatch table.
type Server struct {
	deps Deps
	log  *zap.Logger

	public     *http.Server
	publicLn   net.Listener
	private    *http.Server
	privateLn  net.Listener
}

// NewServer builds both HTTP servers on addr:port and addr:privatePort.
// tlsConfig, if non-nil, is applied to the private intake port only. The
// public read API is never behind mTLS.
func NewServer(addr string, port, privatePort int, tlsConfig *tls.Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{deps: deps, log: log}

	publicMux := http.NewServeMux()
	registerPublicRoutes(publicMux, deps)
	s.public = &http.Server{
		Addr:              net.JoinHostPort(addr, strconv.Itoa(port)),
		Handler:           publicMux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	privateMux := http.NewServeMux()
	registerPrivateRoutes(privateMux, deps)
	s.private = &http.Server{
		Addr:              net.JoinHostPort(addr, strconv.Itoa(privatePort)),
		Handler:           privateMux,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start binds both listeners synchronously, then serves each in its own
// background goroutine, so callers learn immediately if either port is
// already in use.
func (s *Server) Start() error {
	publicLn, err := net.Listen("tcp", s.public.Addr)
	if err != nil {
		return err
	}
	s.publicLn = publicLn
	go func() {
		if err := s.public.Serve(publicLn); err != nil && err != http.ErrServerClosed {
			s.log.Error("public api server error", zap.Error(err))
		}
	}()

	if s.private.TLSConfig != nil {
		privateLn, err := tls.Listen("tcp", s.private.Addr, s.private.TLSConfig)
		if err != nil {
			return err
		}
		s.privateLn = privateLn
	} else {
		privateLn, err := net.Listen("tcp", s.private.Addr)
		if err != nil {
			return err
		}
		s.privateLn = privateLn
	}
	go func() {
		if err := s.private.Serve(s.privateLn); err != nil && err != http.ErrServerClosed {
			s.log.Error("private intake server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts down both servers, waiting up to 5 seconds each for
// in-flight requests to complete.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.public.Shutdown(ctx); err != nil {
		return err
	}
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	return s.private.Shutdown(ctx2)
}

func registerPublicRoutes(mux *http.ServeMux, deps Deps) {
	h := &publicHandlers{deps: deps}
	mux.HandleFunc("GET /block_height", h.blockHeight)
	mux.HandleFunc("GET /block_height_at/{unix}", h.blockHeightAt)
	mux.HandleFunc("GET /validators", h.validators)
	mux.HandleFunc("GET /validator/{address}", h.validator)
	mux.HandleFunc("GET /transaction/{hash}", h.transaction)
	mux.HandleFunc("GET /transaction/pending/{hash}", h.transactionPending)
	mux.HandleFunc("GET /transaction/status/{hash}", h.transactionStatus)
	mux.HandleFunc("GET /transaction/fees/{size}", h.transactionFees)
	mux.HandleFunc("GET /utxo/{address}", h.utxo)
	mux.HandleFunc("POST /utxos", h.utxosBatch)
	mux.HandleFunc("GET /wallet/transactions/history/{addr}", h.walletHistory)
	mux.HandleFunc("GET /wallet/transaction/overview/{hash}", h.walletOverview)
	mux.HandleFunc("GET /wallet/transactions/pending/{addr}", h.walletPending)
	mux.HandleFunc("GET /wallet/blocks/header", h.walletBlockHeader)
	mux.HandleFunc("GET /latest-blocks", h.latestBlocks)
	mux.HandleFunc("GET /latest-transactions", h.latestTransactions)
	mux.HandleFunc("GET /block-summary", h.blockSummary)
	mux.HandleFunc("GET /block-enrollments", h.blockEnrollments)
	mux.HandleFunc("GET /block-transactions", h.blockTransactions)
	mux.HandleFunc("GET /boa-stats", h.boaStats)
	mux.HandleFunc("GET /holders", h.holders)
	mux.HandleFunc("GET /spv/{hash}", h.spv)
	mux.HandleFunc("GET /proposals", h.proposals)
	mux.HandleFunc("GET /proposal/{proposal_id}", h.proposal)
	mux.Handle("GET /metrics", promhttp.Handler())
	if deps.Hub != nil {
		mux.Handle("GET /ws", deps.Hub)
	}
}

func registerPrivateRoutes(mux *http.ServeMux, deps Deps) {
	h := &privateHandlers{deps: deps}
	mux.HandleFunc("POST /block_externalized", h.blockExternalized)
	mux.HandleFunc("POST /preimage_received", h.preimageReceived)
	mux.HandleFunc("POST /transaction_received", h.transactionReceived)
}
