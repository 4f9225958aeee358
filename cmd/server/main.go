// Cloudex Server
//
// Features:
// - Virtual file system over a flat catalogue (rename/move/delete cascades)
// - Inbox and notification drawer
// - SSE and WebSocket live updates
// - Prometheus metrics & structured logging (zap)
// - JWT auth & per-user rate limiting
// - Optional state snapshots (local file, PostgreSQL, SQLite, S3)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/api"
	"github.com/mdmarufa/cloudex/internal/auth"
	"github.com/mdmarufa/cloudex/internal/config"
	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/internal/inbox"
	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/internal/notify"
	"github.com/mdmarufa/cloudex/internal/quota"
	"github.com/mdmarufa/cloudex/internal/seed"
	"github.com/mdmarufa/cloudex/internal/snapshot"
	"github.com/mdmarufa/cloudex/internal/vfs"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Component: "server",
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("Cloudex Server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("snapshots", cfg.SnapshotBackend))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Demo account
	user := seed.DemoUser
	user.StorageLimit = cfg.StorageLimit
	authHandler := auth.New(cfg.JWTSecret)
	if err := authHandler.AddUser(user, cfg.DemoPassword); err != nil {
		logging.Fatal("failed to create demo user", zap.Error(err))
	}

	// In-memory state
	broadcaster := events.NewBroadcaster()
	files := vfs.New(vfs.Options{
		StorageLimit: cfg.StorageLimit,
		Publisher:    broadcaster,
	})
	mailbox := inbox.New(inbox.Options{
		Owner:             user.Username,
		MaxAttachmentSize: cfg.MaxAttachmentSize,
		Publisher:         broadcaster,
	})
	notifications := notify.NewCenter(broadcaster)
	go notify.NewRecorder(notifications, broadcaster).Run(ctx)

	rateLimiter := quota.NewRateLimiter()
	go rateLimiter.RunCleanup(ctx, time.Hour, 24*time.Hour)

	// Snapshot backend (optional)
	var snapshots *snapshot.Manager
	store, err := snapshot.NewStoreFromConfig(ctx, cfg)
	if err != nil {
		logging.Fatal("snapshot backend init failed", zap.Error(err))
	}
	if store != nil {
		snapshots = snapshot.NewManager(store)
		defer snapshots.Close()
	}

	srv := api.NewServer(api.Deps{
		Files:         files,
		Inbox:         mailbox,
		Notifications: notifications,
		Auth:          authHandler,
		Broadcaster:   broadcaster,
		RateLimiter:   rateLimiter,
		Snapshots:     snapshots,
		Config:        cfg,
	})

	// Initial data: a restored snapshot, or the seed after its fetch delay
	state := snapshot.State{Files: files, Inbox: mailbox, Notifications: notifications}
	if !restoreSnapshot(ctx, cfg, snapshots, state) {
		go loadSeed(ctx, cfg, state, srv)
	} else {
		srv.MarkLoaded()
	}

	// Start metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		// Event streams never finish on their own; Close after the grace period.
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			httpServer.Close()
		}
		metricsServer.Close()
	}()

	logging.Info("server listening (HTTP)", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}
}

// restoreSnapshot loads the latest snapshot when restore is enabled and
// reports whether state was replaced.
func restoreSnapshot(ctx context.Context, cfg *config.Config, snapshots *snapshot.Manager, state snapshot.State) bool {
	if snapshots == nil || !cfg.SnapshotRestore {
		return false
	}
	snap, err := snapshots.Load(ctx)
	if errors.Is(err, snapshot.ErrNotFound) {
		logging.Info("no snapshot to restore, using seed data")
		return false
	}
	if err != nil {
		logging.Error("snapshot restore failed, using seed data", zap.Error(err))
		return false
	}
	state.Restore(snap)
	return true
}

// loadSeed fetches the seeded dataset and opens the API once it arrives.
func loadSeed(ctx context.Context, cfg *config.Config, state snapshot.State, srv *api.Server) {
	ds, err := seed.Loader{Delay: cfg.FetchDelay}.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.Error("seed fetch failed", zap.Error(err))
		}
		return
	}
	state.Restore(&snapshot.Snapshot{
		Version:       snapshot.FormatVersion,
		Files:         ds.Files,
		Conversations: ds.Conversations,
		Messages:      ds.Messages,
		Notifications: ds.Notifications,
	})
	srv.MarkLoaded()
}
