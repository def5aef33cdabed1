// Command proxynode runs the S3-compatible data proxy: check_access
// gating in front of object storage (spec.md §4.F), backed by the same
// cache and graph construction as catalogd but with no middle-layer
// mutation surface of its own — a proxy node only reads the cache. It
// does not forward replication or credential callbacks to the catalog.
//
// Grounded on the teacher's cmd/aisnode/main.go (flag parse, config
// load, construct the daemon's HTTP front end, block on it) and
// ais/tgts3.go's http.Handler shape for S3-style request dispatch.
package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimbusfs/core/cache"
	"github.com/nimbusfs/core/catalog"
	"github.com/nimbusfs/core/cmn"
	"github.com/nimbusfs/core/graph"
	"github.com/nimbusfs/core/permission"
	"github.com/nimbusfs/core/replication"
	"github.com/nimbusfs/core/rules"
	"github.com/nimbusfs/core/s3gate"
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

	gate := &s3gate.Gate{
		Cache:       ch,
		Graph:       gstore,
		Permissions: perms,
		Rules:       re,
		Replication: repl,
	}

	reg := prometheus.NewRegistry()
	metrics := stats.NewRegistry(reg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go ch.Run(ctx, bus, c, log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", &s3Handler{gate: gate, log: log, endpointID: cmn.ID(cfg.Signing.SelfID), stats: metrics})
	srv := &http.Server{
		Addr:    cfg.Net.ListenAddr,
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("proxynode started", zap.String("listen_addr", cfg.Net.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// s3Handler adapts an incoming S3 request to s3gate.Gate.CheckAccess.
// It extracts the SigV4 access key id from the Authorization header
// without verifying the signature itself — signature verification is
// the S3 backend's job once the request is forwarded; this gate only
// answers the authorization question (spec.md §4.F "check_access takes
// resolved credentials, not raw signature bytes").
type s3Handler struct {
	gate       *s3gate.Gate
	log        *zap.Logger
	endpointID cmn.ID
	stats      *stats.Registry
}

func (h *s3Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := s3gate.Request{
		Credentials: parseSigV4Credentials(r.Header.Get("Authorization")),
		Method:      r.Method,
		Path:        s3gate.ParsePath(r.URL.Path),
		Headers:     flattenHeader(r.Header),
		Origin:      r.Header.Get("Origin"),
		EndpointID:  h.endpointID,
	}

	decision, err := h.gate.CheckAccess(r.Context(), req)
	if h.stats != nil {
		kind := ""
		if err != nil {
			kind = cmn.KindOf(err).String()
		}
		h.stats.Observe("CheckAccess", start, kind)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if decision.CORS != nil {
		w.Header().Set("Access-Control-Allow-Origin", decision.CORS.AllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", decision.CORS.AllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", decision.CORS.AllowHeaders)
	}
	if h.stats != nil && decision.States != nil && decision.States.Object != nil {
		h.stats.AddObjectBytes(r.Method, decision.States.Object.ContentLength)
	}
	w.WriteHeader(http.StatusOK)
}

func parseSigV4Credentials(authHeader string) *s3gate.Credentials {
	const prefix = "AWS4-HMAC-SHA256 Credential="
	idx := strings.Index(authHeader, prefix)
	if idx < 0 {
		return nil
	}
	rest := authHeader[idx+len(prefix):]
	end := strings.IndexAny(rest, "/,")
	if end < 0 {
		return nil
	}
	return &s3gate.Credentials{AccessKey: rest[:end]}
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusForbidden
	switch cmn.KindOf(err) {
	case cmn.KindNotFound:
		status = http.StatusNotFound
	case cmn.KindUnauthenticated:
		status = http.StatusUnauthorized
	case cmn.KindInvalidArgument:
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func loadSigningKey(path string) (ed25519.PrivateKey, error) {
	seed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("proxynode: read signing key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("proxynode: signing key at %s must be %d bytes, got %d", path, ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
