package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/ANPalert-art/Port-rep/internal/models"
)

// Archive is the unbounded, append-at-compaction store for history records
// that have rotated out of the live window. Compaction is one-way: archived
// records are never replayed into future reports.
type Archive struct {
	path   string
	logger *slog.Logger
}

// NewArchive creates an archive over the given JSON file path.
func NewArchive(path string, logger *slog.Logger) *Archive {
	return &Archive{
		path:   path,
		logger: logger.With("component", "archive"),
	}
}

// Compact appends the live history slice to the archive file (archive
// contents first, live records after) and writes the combined set back
// atomically. A missing archive file starts empty; an unreadable one is an
// error so a corrupt archive is never silently overwritten. Returns the
// total archived record count; the caller clears the live slice only on
// success.
func (a *Archive) Compact(live []models.HistoryRecord) (int, error) {
	existing, err := a.load()
	if err != nil {
		return 0, err
	}

	combined := append(existing, live...)
	if combined == nil {
		combined = []models.HistoryRecord{}
	}
	data, err := json.MarshalIndent(combined, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal archive: %w", err)
	}
	data = append(data, '\n')

	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return 0, fmt.Errorf("write temp archive: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return 0, fmt.Errorf("replace archive file: %w", err)
	}

	a.logger.Info("history_archived", "added", len(live), "total", len(combined))
	return len(combined), nil
}

func (a *Archive) load() ([]models.HistoryRecord, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	var records []models.HistoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return records, nil
}
