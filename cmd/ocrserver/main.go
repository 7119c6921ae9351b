package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thedunerats/ocr-js-poc-demo/internal/config"
	"github.com/thedunerats/ocr-js-poc-demo/internal/net"
	"github.com/thedunerats/ocr-js-poc-demo/internal/server"
	"github.com/thedunerats/ocr-js-poc-demo/internal/weights"
)

// placeholderRows seeds a new network when no dataset is configured.
const placeholderRows = 100

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config")
	addr := flag.String("addr", "", "Listen address")
	modelPath := flag.String("model", "", "Path of the weight record")
	hidden := flag.Int("hidden", 0, "Hidden layer width")
	maxBackups := flag.Int("max-backups", 0, "Backups kept after each save")
	dataset := flag.String("dataset", "", "CSV dataset used for the initial epoch")
	seed := flag.Int64("seed", 0, "PRNG seed")
	memory := flag.Bool("memory", false, "Keep weights in memory only")

	flag.Parse()

	logger := log.New(os.Stderr, "ocr: ", log.LstdFlags|log.Lmicroseconds)

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			logger.Fatalf("failed to load config: %v", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		logger.Fatalf("invalid environment: %v", err)
	}
	cfg.ApplyOverrides(config.Overrides{
		Addr:        *addr,
		ModelPath:   *modelPath,
		HiddenNodes: *hidden,
		MaxBackups:  *maxBackups,
		DatasetPath: *dataset,
		Seed:        *seed,
		Memory:      *memory,
	})
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	data := net.Placeholder(placeholderRows)
	if cfg.DatasetPath != "" {
		var err error
		if data, err = net.LoadCSV(cfg.DatasetPath); err != nil {
			logger.Fatalf("load dataset %s: %v", cfg.DatasetPath, err)
		}
	}
	logger.Printf("dataset: %d samples", data.Len())

	network, err := buildNetwork(cfg, data, logger)
	if err != nil {
		logger.Fatalf("initialise network: %v", err)
	}
	logger.Printf("network: %v", network.Store())

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.New(network, server.Options{
			MaxBackups: cfg.MaxBackups,
			Seed:       cfg.Seed,
			Logger:     logger,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
	logger.Printf("stopped")
}

// buildNetwork loads the record at cfg.ModelPath or trains a new one. An
// unreadable record is logged and replaced.
func buildNetwork(cfg *config.Config, data *net.Dataset, logger *log.Logger) (*net.Network, error) {
	opts := net.Options{
		HiddenNodes: cfg.HiddenNodes,
		MaxBackups:  cfg.MaxBackups,
	}
	if cfg.Seed != 0 {
		opts.Rand = rand.New(rand.NewSource(cfg.Seed))
	}
	if cfg.PersistToDisk {
		store, err := weights.NewStore(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		opts.Store = store
	}

	n, err := net.New(opts, data, data.Indices())
	var loadErr *weights.LoadError
	if errors.As(err, &loadErr) {
		logger.Printf("discarding unreadable record: %v", loadErr)
		opts.Fresh = true
		n, err = net.New(opts, data, data.Indices())
	}
	return n, err
}
