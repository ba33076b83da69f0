// Package server exposes the session store over HTTP for dashboards and
// remote control, and hosts the background loops (bridge watcher, config
// watcher, startup reconciliation) that keep the store current.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/perchdev/perch/config"
	"github.com/perchdev/perch/internal/bridge"
	"github.com/perchdev/perch/internal/reconcile"
	"github.com/perchdev/perch/internal/store"
	"github.com/perchdev/perch/internal/track"
	"github.com/perchdev/perch/pkg/paths"
	"github.com/perchdev/perch/pkg/tmux"
)

// DefaultAddr is where the viewer API listens. Loopback only: the API can
// drive tmux panes and must not be reachable off-host.
const DefaultAddr = "127.0.0.1:8425"

// Server hosts the HTTP API and the background loops.
type Server struct {
	store  *store.Store
	tmux   *tmux.Client
	logger *logrus.Entry
	addr   string

	// readContainerFile fetches a file from inside a container; swapped out
	// in tests.
	readContainerFile func(ctx context.Context, container, path string) ([]byte, error)

	httpServer *http.Server
}

// New creates a Server. The tmux client may be nil when no tmux binary is
// available; pane actions then fail with an explicit error instead of at
// startup.
func New(st *store.Store, tmuxClient *tmux.Client, logger *logrus.Entry, addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		store:             st,
		tmux:              tmuxClient,
		logger:            logger,
		addr:              addr,
		readContainerFile: dockerReadFile,
	}
}

// Run starts the background loops and serves HTTP until the context is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	// One-shot sweep before serving so the first list a client sees is
	// already reconciled.
	var lister reconcile.PaneLister
	var resolver track.PaneResolver
	if s.tmux != nil {
		lister = s.tmux
		resolver = s.tmux
	}
	if err := reconcile.Run(ctx, s.store, lister, s.logger); err != nil {
		s.logger.WithError(err).Warn("Startup reconciliation failed")
	}

	ingestor := track.New(s.store, resolver, s.logger)
	watcher := bridge.NewWatcher(
		config.BridgeDirList{},
		bridge.NewFileOffsetStore(paths.BridgeOffsetsPath()),
		ingestor.Ingest,
		s.logger,
	)
	go watcher.Run(ctx)

	// The dir list is re-read every poll anyway; fsnotify just makes
	// `bridge-dirs add` take effect immediately.
	if cw, err := config.NewWatcher(s.logger, func() { watcher.ScanOnce(ctx) }); err != nil {
		s.logger.WithError(err).Warn("Config watcher unavailable, relying on polling")
	} else {
		go cw.Start(ctx)
	}

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("Server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
