package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"homework-tracker/logger"
	"homework-tracker/models"
)

// FormatVersion is written in every export.
const FormatVersion = 1

var ErrInvalidSnapshot = errors.New("invalid backup document")

// Local is the storage the backup reads from and restores into.
type Local interface {
	LoadSnapshot(ctx context.Context) (models.Snapshot, error)
	ReplaceSnapshot(ctx context.Context, snap models.Snapshot, replacePeriods bool) error
	ClearAll(ctx context.Context) error
}

// Document is the exported file.
type Document struct {
	models.Snapshot
	Timestamp string `json:"timestamp"`
	Version   int    `json:"version"`
}

type Service struct {
	local   Local
	nowFunc func() time.Time
}

func NewService(local Local) *Service {
	return &Service{local: local, nowFunc: time.Now}
}

// FileName is the download name of an export made at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("fina_backup_%s.json", models.FormatDate(now))
}

// Export bundles the five collections with a timestamp and the format version.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	snap, err := s.local.LoadSnapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading collections")
	}
	snap.Normalize()
	doc := Document{
		Snapshot:  snap,
		Timestamp: s.nowFunc().UTC().Format(time.RFC3339Nano),
		Version:   FormatVersion,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding backup")
	}
	return out, nil
}

// Import restores an exported document. It returns false and leaves local state
// untouched when the document cannot be used.
func (s *Service) Import(ctx context.Context, data []byte) bool {
	if err := s.ImportErr(ctx, data); err != nil {
		logger.LogError("Import failed", err)
		return false
	}
	return true
}

// ImportErr is Import reporting why a document was rejected.
func (s *Service) ImportErr(ctx context.Context, data []byte) error {
	snap, hasPeriods, err := Parse(data)
	if err != nil {
		return err
	}
	return errors.Wrap(s.local.ReplaceSnapshot(ctx, snap, hasPeriods), "restoring collections")
}

// Parse validates a backup document. classes and students must be present
// and be arrays; sessions and records default to empty; periods are reported
// as absent so the caller keeps the current ones.
func Parse(data []byte) (models.Snapshot, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.Snapshot{}, false, errors.Wrap(ErrInvalidSnapshot, err.Error())
	}

	var snap models.Snapshot
	if err := decodeArray(fields, "classes", true, &snap.Classes); err != nil {
		return models.Snapshot{}, false, err
	}
	if err := decodeArray(fields, "students", true, &snap.Students); err != nil {
		return models.Snapshot{}, false, err
	}
	if err := decodeArray(fields, "sessions", false, &snap.Sessions); err != nil {
		return models.Snapshot{}, false, err
	}
	if err := decodeArray(fields, "records", false, &snap.Records); err != nil {
		return models.Snapshot{}, false, err
	}
	hasPeriods := isPresent(fields, "periods")
	if hasPeriods {
		if err := decodeArray(fields, "periods", false, &snap.Periods); err != nil {
			return models.Snapshot{}, false, err
		}
	}
	snap.Normalize()
	return snap, hasPeriods, nil
}

func isPresent(fields map[string]json.RawMessage, name string) bool {
	raw, ok := fields[name]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeArray(fields map[string]json.RawMessage, name string, required bool, dst interface{}) error {
	if !isPresent(fields, name) {
		if required {
			return errors.Wrapf(ErrInvalidSnapshot, "%s is missing", name)
		}
		return nil
	}
	raw := bytes.TrimSpace(fields[name])
	if len(raw) == 0 || raw[0] != '[' {
		return errors.Wrapf(ErrInvalidSnapshot, "%s is not an array", name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(ErrInvalidSnapshot, "%s: %v", name, err)
	}
	return nil
}

// Clear removes every collection. Callers confirm intent first.
func (s *Service) Clear(ctx context.Context) error {
	return s.local.ClearAll(ctx)
}
