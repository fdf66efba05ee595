package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

const (
	progressFileName = "progress.json"
	lockFileName     = ".run.lock"
)

// ErrNoProgress signals that no progress record has been persisted yet.
var ErrNoProgress = errors.New("no progress record")

// ProgressRepository persists job progress across process restarts and
// guards against concurrent runs over the same progress directory. It
// is a durability mechanism only; the batch runner owns the state.
type ProgressRepository interface {
	Load(ctx context.Context) (*entity.JobProgress, error)
	Save(ctx context.Context, p *entity.JobProgress) error
	// AcquireLock takes the advisory run lock; it fails when another
	// process holds it. ReleaseLock is safe to call unconditionally.
	AcquireLock() error
	ReleaseLock() error
}

type fileProgressRepository struct {
	dir    string
	logger *logger.Logger
}

type lockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
}

// NewFileProgressRepository creates a JSON-file-backed progress store
// rooted at dir, creating the directory if needed.
func NewFileProgressRepository(dir string, log *logger.Logger) (ProgressRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress dir %s: %w", dir, err)
	}
	return &fileProgressRepository{dir: dir, logger: log}, nil
}

func (r *fileProgressRepository) Load(ctx context.Context) (*entity.JobProgress, error) {
	data, err := os.ReadFile(r.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoProgress
		}
		return nil, fmt.Errorf("read progress: %w", err)
	}

	var p entity.JobProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse progress: %w", err)
	}
	return &p, nil
}

// Save writes the progress atomically (temp file plus rename) so a
// crash mid-write never leaves a torn checkpoint behind.
func (r *fileProgressRepository) Save(ctx context.Context, p *entity.JobProgress) error {
	p.LastUpdatedAt = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(r.dir, ".progress-*")
	if err != nil {
		return fmt.Errorf("create temp progress file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp progress file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}

func (r *fileProgressRepository) AcquireLock() error {
	f, err := os.OpenFile(r.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			var owner lockOwner
			if data, readErr := os.ReadFile(r.lockPath()); readErr == nil {
				_ = json.Unmarshal(data, &owner)
			}
			return fmt.Errorf("progress dir %s is locked (pid=%d created_at=%s)",
				r.dir, owner.PID, owner.CreatedAt)
		}
		return fmt.Errorf("acquire run lock: %w", err)
	}
	defer f.Close()

	owner := lockOwner{PID: os.Getpid(), CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	if err := json.NewEncoder(f).Encode(owner); err != nil {
		os.Remove(r.lockPath())
		return fmt.Errorf("write run lock: %w", err)
	}
	return nil
}

func (r *fileProgressRepository) ReleaseLock() error {
	if err := os.Remove(r.lockPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

func (r *fileProgressRepository) path() string {
	return filepath.Join(r.dir, progressFileName)
}

func (r *fileProgressRepository) lockPath() string {
	return filepath.Join(r.dir, lockFileName)
}
