package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"twcrawler/pkg/config"
	"twcrawler/pkg/logger"
)

// CurrentVersion is written into every checkpoint
const CurrentVersion = 1

// Checkpoint is the resumable state of a crawl: the frontier still to expand
// and counters for what was already written. It holds no visited set; resuming
// does not change which ids get expanded.
type Checkpoint struct {
	SeedID         int64     `json:"seed_id"`
	OutputFile     string    `json:"output_file"`
	Frontier       []int64   `json:"frontier"`
	Expanded       int       `json:"expanded"`
	SurvivorsTotal int       `json:"survivors_total"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`
}

// Manager reads and writes one checkpoint file
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager returns a manager for the seed's checkpoint under the XDG data dir
func NewManager(seedID int64) (*Manager, error) {
	rel := filepath.Join(config.AppName, "checkpoints", fmt.Sprintf("%d.checkpoint.json", seedID))
	path, err := xdg.DataFile(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve checkpoint path: %w", err)
	}
	return NewManagerAt(path), nil
}

// NewManagerAt returns a manager for an explicit file path
func NewManagerAt(path string) *Manager {
	return &Manager{
		checkpointPath: path,
		logger:         logger.GetLogger(),
	}
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create writes a fresh checkpoint whose frontier holds only the seed,
// replacing any previous one
func (m *Manager) Create(seedID int64, outputFile string) (*Checkpoint, error) {
	now := time.Now()
	cp := &Checkpoint{
		SeedID:     seedID,
		OutputFile: outputFile,
		Frontier:   []int64{seedID},
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    CurrentVersion,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"seed_id": seedID,
		"path":    m.checkpointPath,
	})
	return cp, nil
}

// Load reads the checkpoint. It returns nil, nil when none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Version > CurrentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported version %d", cp.Version, CurrentVersion)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"seed_id":    cp.SeedID,
		"expanded":   cp.Expanded,
		"frontier":   len(cp.Frontier),
		"updated_at": cp.UpdatedAt,
	})
	return &cp, nil
}

// Save writes the checkpoint atomically through a temp file and rename
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	if err := os.MkdirAll(filepath.Dir(m.checkpointPath), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	if err := json.NewEncoder(file).Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}
	return nil
}

// RecordExpansion stores the frontier as it stands after one record was written
func (m *Manager) RecordExpansion(cp *Checkpoint, frontier []int64, survivors int) error {
	cp.Frontier = append(cp.Frontier[:0], frontier...)
	cp.Expanded++
	cp.SurvivorsTotal += survivors

	if err := m.Save(cp); err != nil {
		return err
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"expanded": cp.Expanded,
		"frontier": len(cp.Frontier),
	})
	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.logger.Debug("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}
