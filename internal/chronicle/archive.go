package chronicle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cinnarito/internal/chronicle/interfaces"
	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/storage"
	"cinnarito/internal/structures"

	json "github.com/goccy/go-json"
)

const snapshotVersion = 1

// Archive keeps a compressed copy of every tree on disk so a wiped redis
// can be re-seeded.
type Archive struct {
	games      storage.GameStateRepositoryInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	path       string

	Now func() time.Time
}

func NewArchive(conf *structures.Config, games storage.GameStateRepositoryInterface, compressor interfaces.CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *Archive {
	return &Archive{
		games:      games,
		compressor: compressor,
		logger:     logger,
		metrics:    metrics,
		path:       conf.Archive.FilePath,
		Now:        time.Now,
	}
}

func (a *Archive) Enabled() bool {
	return a != nil && a.path != ""
}

func (a *Archive) SaveToFile(ctx context.Context) error {
	if !a.Enabled() {
		return nil
	}
	started := time.Now()

	names, err := a.games.ListSubreddits(ctx)
	if err != nil {
		return err
	}
	snapshot := models.Snapshot{Version: snapshotVersion, TakenAt: a.Now().UTC(), States: make([]*models.GameState, 0, len(names))}
	for _, name := range names {
		state, err := a.games.Get(ctx, name)
		if err != nil {
			return fmt.Errorf("snapshot r/%s: %w", name, err)
		}
		if state != nil {
			snapshot.States = append(snapshot.States, state)
		}
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := a.compressor.Compress(jsonData)
	if err != nil {
		return err
	}
	if err := writeAtomic(a.path, data); err != nil {
		return err
	}

	a.metrics.ObservePersistenceDuration(time.Since(started))
	a.logger.Infof(providers.TypeApp, "Archived %d spirit trees to %s", len(snapshot.States), a.path)
	return nil
}

func writeAtomic(fileName string, data []byte) error {
	if dir := filepath.Dir(fileName); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}
	return os.Rename(tmpFile, fileName)
}

// LoadFromFile seeds every archived tree that redis no longer has. Trees
// that still exist are left alone. A missing file is not an error.
func (a *Archive) LoadFromFile(ctx context.Context) (int, error) {
	if !a.Enabled() {
		return 0, nil
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	raw, err := a.compressor.Decompress(data)
	if err != nil {
		return 0, fmt.Errorf("decompress archive %s: %w", a.path, err)
	}
	var snapshot models.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return 0, fmt.Errorf("%w: archive %s: %s", models.ErrValidation, a.path, err)
	}
	if snapshot.Version != snapshotVersion {
		return 0, fmt.Errorf("%w: archive %s has version %d", models.ErrValidation, a.path, snapshot.Version)
	}

	restored := 0
	for _, state := range snapshot.States {
		if state == nil {
			continue
		}
		created, err := a.games.Seed(ctx, state)
		if err != nil {
			a.logger.Warnf(providers.TypeApp, "Skipping archived r/%s: %s", state.SubredditName, err)
			continue
		}
		if created {
			restored++
		}
	}
	if restored > 0 {
		a.logger.Infof(providers.TypeApp, "Restored %d spirit trees from %s", restored, a.path)
	}
	return restored, nil
}

func (a *Archive) Close() {
	if a != nil && a.compressor != nil {
		a.compressor.Close()
	}
}
