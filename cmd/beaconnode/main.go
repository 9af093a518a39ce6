// Command beaconnode runs a single peer of a decentralized Pedersen
// commit-reveal random beacon. It wires the config loader, the opening
// store, the peer directory, the peer client, and the protocol coordinator
// behind the HTTP request surface, then serves until signalled to stop.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"randbeacon/pkg/api"
	"randbeacon/pkg/clock"
	"randbeacon/pkg/config"
	"randbeacon/pkg/coordinator"
	"randbeacon/pkg/directory"
	"randbeacon/pkg/openingstore"
	"randbeacon/pkg/peerclient"
)

const (
	peerCallTimeout  = 10 * time.Second
	openingSweepTick = 30 * time.Second
)

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir, err := directory.New(cfg.SelfURL, cfg.Peers)
	if err != nil {
		return err
	}

	sysClock := clock.System{}
	store := openingstore.New(cfg.OpeningTTL, sysClock, openingSweepTick)
	defer store.Close()

	client := peerclient.New(peerCallTimeout)

	coord := coordinator.New(
		dir,
		store,
		client,
		coordinator.DefaultScalarSource{},
		sysClock,
		coordinator.UUIDGenerator{},
	)

	srv := api.New(coord, dir)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("self_url", cfg.SelfURL).
			Str("listen_addr", cfg.ListenAddr).
			Int("n", dir.N()).
			Int("threshold", dir.Threshold()).
			Msg("beaconnode listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("beaconnode shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("beaconnode exited")
		os.Exit(1)
	}
}
