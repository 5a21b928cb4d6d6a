package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pkt.systems/inkbridge/schema"
	"pkt.systems/pslog"
)

// DocumentSnapshot captures host-owned document state for persistence.
type DocumentSnapshot struct {
	Content   string           `json:"content"`
	Theme     schema.ThemeName `json:"theme,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Store persists document snapshots to disk.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, "documents"), 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads a document snapshot from disk.
func (s *Store) Load(id schema.DocumentID) (DocumentSnapshot, bool, error) {
	if err := schema.ValidateDocumentID(id); err != nil {
		return DocumentSnapshot{}, false, err
	}
	data, err := os.ReadFile(s.pathForDocument(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("state load miss", "document", id)
			}
			return DocumentSnapshot{}, false, nil
		}
		if s.log != nil {
			s.log.Warn("state load failed", "document", id, "err", err)
		}
		return DocumentSnapshot{}, false, err
	}
	var snapshot DocumentSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		if s.log != nil {
			s.log.Warn("state load failed", "document", id, "err", err)
		}
		return DocumentSnapshot{}, false, err
	}
	if s.log != nil {
		s.log.Debug("state load ok", "document", id, "bytes", len(snapshot.Content))
	}
	return snapshot, true, nil
}

// Save writes a document snapshot to disk atomically.
func (s *Store) Save(id schema.DocumentID, snapshot DocumentSnapshot) error {
	if err := schema.ValidateDocumentID(id); err != nil {
		return err
	}
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}
	err := s.write(s.pathForDocument(id), snapshot)
	if err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "document", id, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "document", id, "bytes", len(snapshot.Content))
	}
	return nil
}

// List returns the ids of all persisted documents.
func (s *Store) List() ([]schema.DocumentID, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "documents"))
	if err != nil {
		return nil, err
	}
	ids := make([]schema.DocumentID, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := schema.DocumentID(strings.TrimSuffix(name, ".json"))
		if schema.ValidateDocumentID(id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// tempPattern names in-flight writes. The leading dot and suffix keep a file
// left behind by a crash out of List.
const tempPattern = ".document-*.tmp"

func (s *Store) write(path string, snapshot DocumentSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) pathForDocument(id schema.DocumentID) string {
	return filepath.Join(s.dir, "documents", string(id)+".json")
}
