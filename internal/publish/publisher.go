package publish

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/config"
)

// runPrefix prefixes every published run's keys. Rotation only ever touches
// keys under it, so the bucket can hold unrelated objects.
const runPrefix = "quantbench-run-"

// minRunsToKeep is the rotation floor: the newest runs are never deleted
// regardless of configuration.
const minRunsToKeep = 3

// ObjectStore is the storage surface the publisher needs; *Client
// implements it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}

// Publisher uploads run artifacts under a per-run prefix and rotates old
// published runs out of the bucket.
type Publisher struct {
	store ObjectStore
	log   zerolog.Logger
}

// NewPublisher creates a publisher over an object store
func NewPublisher(store ObjectStore, log zerolog.Logger) *Publisher {
	return &Publisher{
		store: store,
		log:   log.With().Str("component", "publisher").Logger(),
	}
}

// FromConfig builds a publisher when cfg is fully configured, or nil when
// publishing is disabled.
func FromConfig(ctx context.Context, cfg *config.PublishConfig, log zerolog.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := NewClient(ctx, cfg.Endpoint, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey, cfg.Bucket, log)
	if err != nil {
		return nil, err
	}
	return NewPublisher(client, log), nil
}

// PublishRun uploads every file under dir to the run's prefix, preserving
// the directory layout, and returns the uploaded keys.
func (p *Publisher) PublishRun(ctx context.Context, runID, dir string) ([]string, error) {
	prefix := runPrefix + runID
	var keys []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := prefix + "/" + filepath.ToSlash(rel)

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open artifact %s: %w", path, err)
		}
		defer f.Close()

		if err := p.store.Upload(ctx, key, f); err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.log.Info().
		Str("run_id", runID).
		Int("objects", len(keys)).
		Msg("Run artifacts published")
	return keys, nil
}

// publishedRun groups one run's stored objects for rotation decisions.
type publishedRun struct {
	runID  string
	newest time.Time
	keys   []string
}

// RotateOldRuns deletes published runs older than the retention period,
// always keeping the newest keep runs (floor minRunsToKeep). retentionDays
// zero keeps everything beyond the minimum.
func (p *Publisher) RotateOldRuns(ctx context.Context, retentionDays, keep int) error {
	runs, err := p.listRuns(ctx)
	if err != nil {
		return err
	}

	if keep < minRunsToKeep {
		keep = minRunsToKeep
	}
	if len(runs) <= keep {
		p.log.Info().Int("count", len(runs)).Msg("Too few published runs to rotate")
		return nil
	}

	var cutoff time.Time
	if retentionDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -retentionDays)
	}

	deleted := 0
	for i, run := range runs {
		if i < keep {
			continue
		}
		if retentionDays == 0 {
			continue
		}
		if run.newest.Before(cutoff) {
			if err := p.deleteRun(ctx, run); err != nil {
				p.log.Error().Err(err).Str("run_id", run.runID).Msg("Failed to delete published run")
				continue
			}
			deleted++
		}
	}

	p.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(runs)-deleted).
		Msg("Published run rotation completed")
	return nil
}

// listRuns groups stored objects by run, newest first. A run's age is its
// newest object's LastModified.
func (p *Publisher) listRuns(ctx context.Context) ([]publishedRun, error) {
	objects, err := p.store.List(ctx, runPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list published runs: %w", err)
	}

	byRun := make(map[string]*publishedRun)
	for _, obj := range objects {
		rest := strings.TrimPrefix(obj.Key, runPrefix)
		runID, _, ok := strings.Cut(rest, "/")
		if !ok || runID == "" {
			continue
		}
		run := byRun[runID]
		if run == nil {
			run = &publishedRun{runID: runID}
			byRun[runID] = run
		}
		run.keys = append(run.keys, obj.Key)
		if obj.LastModified.After(run.newest) {
			run.newest = obj.LastModified
		}
	}

	runs := make([]publishedRun, 0, len(byRun))
	for _, run := range byRun {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].newest.After(runs[j].newest) })
	return runs, nil
}

func (p *Publisher) deleteRun(ctx context.Context, run publishedRun) error {
	for _, key := range run.keys {
		if err := p.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	p.log.Info().
		Str("run_id", run.runID).
		Int("objects", len(run.keys)).
		Msg("Deleted published run")
	return nil
}
