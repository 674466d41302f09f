// Package backup produces recoverable JSON snapshots of a dataset.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tengebook-dev/tengebook/internal/model"
	"github.com/tengebook-dev/tengebook/internal/storage"
)

// timestampFormat matches backup names like ledger_backup_20250901_143052.json.
const timestampFormat = "20060102_150405"

// CreateBackup copies the file at sourcePath into a backups/ directory next
// to it, with a timestamped name. It returns the backup path.
func CreateBackup(sourcePath string) (string, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", sourcePath, err)
	}

	dir := filepath.Join(filepath.Dir(sourcePath), "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := fmt.Sprintf("%s_backup_%s%s", stem, time.Now().Format(timestampFormat), filepath.Ext(base))

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", path, err)
	}
	return path, nil
}

// ExportToJSON writes the store's full dataset as a JSON document at path.
// The document round-trips through the JSON storage adapter unchanged.
func ExportToJSON(store storage.Store, path string) error {
	d, err := store.Dataset()
	if err != nil {
		return err
	}
	return WriteDataset(d, path)
}

// WriteDataset marshals the dataset to path, creating parent directories.
func WriteDataset(d model.Dataset, path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling dataset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
