// Command relay serves the account directory and conversation logs that
// securexchat clients talk to.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	securexchat "github.com/securexchat/client-go"
	"github.com/securexchat/client-go/internal/config"
	"github.com/securexchat/client-go/internal/crypto"
	"github.com/securexchat/client-go/internal/logging"
	"github.com/securexchat/client-go/internal/relay"
	"github.com/securexchat/client-go/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		return err
	}
	log := logging.Logger{Verbose: cfg.Log.Verbose, Debug: cfg.Log.Debug, Out: stdout, Err: stderr}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	signer, err := loadSigner(cfg)
	if err != nil {
		return err
	}
	log.Infof("directory signing key: %s", signer.PublicKeyB64())

	srv := relay.NewServer(store,
		relay.WithAPIKey(cfg.Server.APIKey),
		relay.WithSigner(signer),
		relay.WithRetention(cfg.Expiry.Retention),
		relay.WithLogger(log),
	)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sweeper := securexchat.NewSweeper(store,
		securexchat.SweepInterval(cfg.Expiry.SweepInterval),
		securexchat.SweepRetention(cfg.Expiry.Retention),
		securexchat.SweepLogger(log),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sweeper.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Infof("listening on %s (storage: %s)", cfg.Server.Addr, cfg.Storage.Driver)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Infof("relay stopped")
	return err
}

// openStore builds the configured relay.Store and a func releasing it.
func openStore(ctx context.Context, cfg *config.ServerConfig) (relay.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.New(db)
		if err := store.CreateSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	default:
		return relay.NewMemoryStore(), func() {}, nil
	}
}

// loadSigner derives the directory signer from the configured seed, or
// generates an ephemeral one. Clients pinning an ephemeral key must re-pin
// after every restart.
func loadSigner(cfg *config.ServerConfig) (*crypto.DirectorySigner, error) {
	seed, err := cfg.SigningSeed()
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return crypto.GenerateDirectorySigner()
	}
	return crypto.NewDirectorySigner(seed)
}
