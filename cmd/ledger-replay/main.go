package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/csvio"
	"github.com/goodnatureofminers/ledger-replay/internal/ledger/repository/clickhouse"
	"github.com/goodnatureofminers/ledger-replay/internal/ledger/service"
	"github.com/goodnatureofminers/ledger-replay/internal/metrics"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type config struct {
	OnError            string        `long:"on-error" env:"LEDGER_REPLAY_ON_ERROR" description:"what a rejected deposit or withdrawal does to the run" choice:"abort" choice:"skip" default:"abort"`
	Workers            int           `long:"workers" env:"LEDGER_REPLAY_WORKERS" description:"shard the replay by client over this many workers" default:"1"`
	LogLevel           string        `long:"log-level" env:"LEDGER_REPLAY_LOG_LEVEL" description:"log level" default:"info"`
	ClickhouseDSN      string        `long:"clickhouse-dsn" env:"LEDGER_REPLAY_CLICKHOUSE_DSN" description:"ClickHouse DSN; when set the snapshot and event outcomes are stored there too"`
	AuditFlushSize     int           `long:"audit-flush-size" env:"LEDGER_REPLAY_AUDIT_FLUSH_SIZE" description:"event outcomes per ClickHouse insert" default:"5000"`
	AuditFlushInterval time.Duration `long:"audit-flush-interval" env:"LEDGER_REPLAY_AUDIT_FLUSH_INTERVAL" description:"max delay before pending event outcomes are inserted" default:"5s"`
	AuditRPS           int           `long:"audit-rps" env:"LEDGER_REPLAY_AUDIT_RPS" description:"max event outcome inserts per second" default:"20"`
	MetricsAddr        string        `long:"metrics-addr" env:"LEDGER_REPLAY_METRICS_ADDR" description:"address for metrics server; disabled when empty"`

	Args struct {
		Input string `positional-arg-name:"transactions.csv" required:"yes"`
	} `positional-args:"yes"`
}

func main() {
	cfg := config{}
	if _, err := flags.Parse(&cfg); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("ledger replay failed", zap.Error(err))
	}
}

// newLogger writes to stderr; stdout carries the snapshot.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = lvl
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, logger)
	}

	policy, err := service.ParseErrorPolicy(cfg.OnError)
	if err != nil {
		return err
	}

	f, err := os.Open(cfg.Args.Input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	opts := []service.ReplayOption{
		service.WithErrorPolicy(policy),
		service.WithWorkers(cfg.Workers),
	}

	out := bufio.NewWriter(os.Stdout)
	var sinks service.MultiSnapshotWriter

	if cfg.ClickhouseDSN != "" {
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository())
		if err != nil {
			return fmt.Errorf("init repository: %w", err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Warn("failed to close repository", zap.Error(err))
			}
		}()

		auditor := service.NewOutcomeAuditor(repo, logger.Named("outcomeAuditor"),
			cfg.AuditFlushSize, cfg.AuditFlushInterval, cfg.AuditRPS)
		opts = append(opts, service.WithOutcomeRecorder(auditor))
		sinks = append(sinks, repo)
	}
	sinks = append(sinks, csvio.NewWriter(out))

	svc, err := service.NewReplayService(metrics.NewReplay(), logger.Named("replay"), opts...)
	if err != nil {
		return err
	}

	accounts, err := svc.Run(ctx, csvio.NewReader(bufio.NewReader(f)))
	if err != nil {
		return err
	}

	if err := sinks.WriteSnapshot(ctx, svc.RunID(), accounts); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
