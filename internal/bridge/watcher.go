// Package bridge tails append-only event files written by containerized
// workers and forwards their records into the ingestion pipeline, translating
// container paths to host paths along the way.
package bridge

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/perchdev/perch/internal/track"
	"github.com/perchdev/perch/pkg/models"
)

const (
	// Bridge files live at a fixed relative location inside each watched
	// directory.
	bridgeSubdir   = ".claude-tracking-bridge"
	bridgeFileName = "events.jsonl"

	// containerRoot is the path prefix the workspace is mounted at inside a
	// container.
	containerRoot = "/workspace"

	// DefaultInterval is the polling interval between scans.
	DefaultInterval = 2 * time.Second

	// perDirTimeout bounds one directory's scan so a slow or unavailable
	// directory cannot starve the others in the same iteration.
	perDirTimeout = 5 * time.Second
)

// DirProvider supplies the directories to scan. It is re-consulted every
// iteration, so configuration changes take effect without a restart.
type DirProvider interface {
	Dirs() []string
}

// IngestFunc forwards one decoded bridge event into the ingestion pipeline.
type IngestFunc func(ctx context.Context, raw *models.HookEvent, source, paneOverride string) track.Result

// Watcher resumably tails the bridge file of each configured directory.
// Multiple viewer processes may run a Watcher against the same store; the
// store's transactional writes make that safe.
type Watcher struct {
	dirs     DirProvider
	offsets  OffsetStore
	ingest   IngestFunc
	interval time.Duration
	log      *logrus.Entry
}

func NewWatcher(dirs DirProvider, offsets OffsetStore, ingest IngestFunc, log *logrus.Entry) *Watcher {
	return &Watcher{
		dirs:     dirs,
		offsets:  offsets,
		ingest:   ingest,
		interval: DefaultInterval,
		log:      log,
	}
}

// WithInterval overrides the polling interval. Used by tests.
func (w *Watcher) WithInterval(d time.Duration) *Watcher {
	w.interval = d
	return w
}

// Run polls until the context is canceled. Cancellation is checked between
// iterations, never mid-batch: an in-flight batch finishes before the loop
// exits.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.ScanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.ScanOnce(ctx)
		}
	}
}

// ScanOnce scans every configured directory once. Per-directory failures are
// logged and do not affect the remaining directories.
func (w *Watcher) ScanOnce(ctx context.Context) {
	for _, dir := range w.dirs.Dirs() {
		dirCtx, cancel := context.WithTimeout(ctx, perDirTimeout)
		if err := w.scanDir(dirCtx, dir); err != nil {
			w.log.WithError(err).WithField("dir", dir).Warn("Bridge scan failed")
		}
		cancel()
	}
}

// scanDir reads the directory's bridge file from the persisted offset to EOF
// and forwards each decoded record. The offset is persisted only after the
// whole batch has been forwarded, so a crash mid-batch re-delivers the batch
// rather than skipping part of it.
func (w *Watcher) scanDir(ctx context.Context, dir string) error {
	path := filepath.Join(dir, bridgeSubdir, bridgeFileName)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	offset := w.offsets.Get(path)
	if info.Size() < offset {
		// File shrank below the persisted offset: truncated or rotated.
		// Re-scan from the start; re-delivery beats silent loss.
		w.log.WithField("file", path).Warn("Bridge file shrank, rescanning from start")
		offset = 0
	}
	if info.Size() <= offset {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	newOffset := offset + int64(len(data))

	w.forwardBatch(ctx, dir, data)

	return w.offsets.Set(path, newOffset)
}

// forwardBatch decodes and forwards every line of newly read bytes. A
// malformed line is skipped without aborting the batch.
func (w *Watcher) forwardBatch(ctx context.Context, dir string, data []byte) {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		rec, err := models.DecodeBridgeRecord(line)
		if err != nil {
			w.log.WithError(err).WithField("dir", dir).Debug("Skipping malformed bridge line")
			continue
		}

		container := rec.Container
		if container == "" {
			container = "unknown"
		}

		// Map container /workspace paths to host paths. Fall back to the
		// watch directory when the record carries no host_dir.
		mapRoot := rec.HostDir
		if mapRoot == "" {
			mapRoot = dir
		}
		rewritePaths(&rec.Data, mapRoot)

		res := w.ingest(ctx, &rec.Data, models.ContainerSource(container), rec.HostTmuxPane)
		if !res.Applied() {
			w.log.WithFields(logrus.Fields{
				"dir":    dir,
				"reason": res.Reason,
			}).Debug("Bridge event not applied")
		}
	}
}

// rewritePaths translates container-namespace paths in the payload to their
// host equivalents.
func rewritePaths(ev *models.HookEvent, mapRoot string) {
	ev.CWD = rewritePath(ev.CWD, mapRoot)
	ev.TranscriptPath = rewritePath(ev.TranscriptPath, mapRoot)
}

func rewritePath(path, mapRoot string) string {
	if strings.HasPrefix(path, containerRoot) {
		return mapRoot + path[len(containerRoot):]
	}
	return path
}
