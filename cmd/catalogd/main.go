// Command catalogd runs the resource-graph catalog server: the
// authoritative graph and Store, the process-wide cache fed by an
// in-process event bus, and the middle layer tying them together
// (spec.md §4.E).
//
// Grounded on the teacher's cmd/aisnode/main.go (flag parse, config
// load, construct the daemon, block on its run loop).
package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/catalog"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
	"github.com/nimbusfs/core/permission"
	"github.com/nimbusfs/core/replication"
	"github.com/nimbusfs/core/rules"
	"github.com/nimbusfs/core/stats"
	"github.com/nimbusfs/core/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flags, err := cmn.ParseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	cfg, err := cmn.Load(flags.ConfigPath)
	if err != nil {
		return err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	priv, err := loadSigningKey(cfg.Signing.KeyPath)
	if err != nil {
		return err
	}

	gstore := graph.NewStore()
	cstore := catalog.NewStore()
	ring := token.NewRing()
	ring.Add(token.PubKey{Serial: cfg.Signing.KeySerial, Key: priv.Public().(ed25519.PublicKey), Owner: cfg.Signing.SelfID})
	signer := token.NewSigner(cfg.Signing.SelfID, cfg.Signing.KeySerial, priv, ring)

	var rootProject cmn.ID
	perms := permission.NewResolver(gstore, rootProject)
	re := rules.NewEngine()
	repl := replication.NewCoordinator()
	bus := cache.NewMemBus(cfg.Cache.EventBufferSize)

	c := catalog.New(gstore, cstore, nil, perms, re, repl, signer, bus, log)
	ch, err := cache.NewStore(c)
	if err != nil {
		return err
	}
	defer ch.Close()
	c.Cache = ch

	reg := prometheus.NewRegistry()
	c.Stats = stats.NewRegistry(reg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go ch.Run(ctx, bus, c, log)
	go reconcileLoop(ctx, c, cfg.Repl.ReconcileEvery)

	metricsSrv := &http.Server{Addr: cfg.Net.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info("catalogd started", zap.String("listen_addr", cfg.Net.ListenAddr))
	<-ctx.Done()
	log.Info("catalogd shutting down")
	return nil
}

func reconcileLoop(ctx context.Context, c *catalog.Catalog, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			c.Reconcile(now)
		}
	}
}

// loadSigningKey reads a raw 32-byte ed25519 seed from path and expands
// it into a private key; the file format a real deployment would
// instead pull from a secrets manager (spec.md §1 treats key custody as
// an external concern).
func loadSigningKey(path string) (ed25519.PrivateKey, error) {
	seed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalogd: read signing key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("catalogd: signing key at %s must be %d bytes, got %d", path, ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
