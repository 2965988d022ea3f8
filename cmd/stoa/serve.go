package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumenledger/stoa/agora"
	"github.com/lumenledger/stoa/api"
	"github.com/lumenledger/stoa/config"
	"github.com/lumenledger/stoa/events"
	"github.com/lumenledger/stoa/governance"
	"github.com/lumenledger/stoa/ingest"
	"github.com/lumenledger/stoa/logging"
	"github.com/lumenledger/stoa/metrics"
	"github.com/lumenledger/stoa/storage"
	"github.com/lumenledger/stoa/validator"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion pipeline and the public/private HTTP APIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "config.json", "path to config file")
	return cmd
}

func runServe(ctx context.Context, cfgPath string) error {
	log := logging.Must("stoa")
	defer log.Sync()

	cfg, err := loadConfig(cfgPath, log)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// ---- open DB ----
	if err := os.MkdirAll(cfg.Database.Name, 0755); err != nil {
		return fmt.Errorf("mkdir database dir: %w", err)
	}
	db, err := storage.NewLevelDB(cfg.Database.Name)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	store := storage.NewStore(db)

	// ---- events ----
	emitter := events.NewEmitter()
	hub := events.NewHub(emitter, log.Named("events"))

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go events.RunStatsTicker(statsCtx, emitter, statsSource(store), 10*time.Second)

	// ---- metrics ----
	m := metrics.New(prometheus.DefaultRegisterer)

	// ---- engines ----
	validators := validator.NewEngine(store)
	gov := governance.NewEngine(store, validators, cfg.Governance.GraceBlocks)

	// ---- consensus client ----
	agoraClient := agora.New(cfg.AgoraEndpoint)

	// ---- ingestion pipeline ----
	pipeline := ingest.New(store, validators, gov, agoraClient, emitter, log.Named("ingest"), m)
	pipelineCtx, stopPipeline := context.WithCancel(ctx)
	defer stopPipeline()
	go pipeline.Run(pipelineCtx)

	log.Info("catching up to consensus tip before exposing ingress endpoints")
	if err := pipeline.CatchUp(pipelineCtx); err != nil {
		log.Warn("catch-up did not complete, continuing, recovery retries on next submission", zap.Error(err))
	}

	// ---- TLS for private intake port ----
	tlsCfg, err := config.LoadTLSConfig(cfg.PrivateTLS)
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	if tlsCfg != nil {
		log.Info("mTLS enabled on private intake port")
	}

	// ---- HTTP servers ----
	server := api.NewServer(cfg.Server.Address, cfg.Server.Port, cfg.Server.PrivatePort, tlsCfg, api.Deps{
		Store:      store,
		Validators: validators,
		Governance: gov,
		Agora:      agoraClient,
		Pipeline:   pipeline,
		Metrics:    m,
		Hub:        hub,
		Log:        log.Named("api"),
	})
	if err := server.Start(); err != nil {
		return fmt.Errorf("start api servers: %w", err)
	}
	log.Info("serving", zap.Int("public_port", cfg.Server.Port), zap.Int("private_port", cfg.Server.PrivatePort))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")

	stopPipeline()
	stopStats()
	if err := server.Stop(); err != nil {
		log.Error("api shutdown error", zap.Error(err))
	}
	return nil
}

func loadConfig(path string, log *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("config file not found, using defaults", zap.String("path", path))
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func statsSource(store *storage.Store) events.StatsSource {
	return func() events.StatsSnapshot {
		tip, err := store.TipHeight()
		if err != nil {
			return events.StatsSnapshot{}
		}
		validators, _ := store.ListEnrollments()
		active := 0
		for _, e := range validators {
			if e.ActiveAt(tip) {
				active++
			}
		}
		totalTx, _ := store.GetTotalTxCount()
		return events.StatsSnapshot{Height: tip, TotalTxCount: totalTx, TotalValidators: active}
	}
}
