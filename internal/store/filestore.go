package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gitlab.com/dirk.krummacker/contactbook-service/internal/model"
)

// FileStore keeps each slot in its own JSON file below a data directory.
// This is the default backend: one flat file per slot, rewritten as a whole
// on every save.
type FileStore struct {
	dir string
}

// NewFileStore initializes a file-backed store in the given directory,
// creating the directory if necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// slotPath returns the file holding the value of the given slot.
func (s *FileStore) slotPath(slot string) string {
	return filepath.Join(s.dir, slot+".json")
}

// writeSlot replaces the slot value. The value is written to a temporary
// file first and then renamed, so a crash mid-write leaves the previous
// value intact.
func (s *FileStore) writeSlot(slot string, value []byte) error {
	path := s.slotPath(slot)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadContacts reads the contacts slot. A missing file or JSON that does
// not parse as a contact array yields an empty collection.
func (s *FileStore) LoadContacts() []model.Contact {
	data, err := os.ReadFile(s.slotPath(ContactsSlot))
	if err != nil {
		return []model.Contact{}
	}
	var contacts []model.Contact
	if err := json.Unmarshal(data, &contacts); err != nil || contacts == nil {
		return []model.Contact{}
	}
	return contacts
}

// SaveContacts serializes the full collection into the contacts slot.
func (s *FileStore) SaveContacts(contacts []model.Contact) error {
	if contacts == nil {
		contacts = []model.Contact{}
	}
	data, err := json.Marshal(contacts)
	if err != nil {
		return err
	}
	return s.writeSlot(ContactsSlot, data)
}

// LoadTheme reads the theme slot, returning "" if none is stored.
func (s *FileStore) LoadTheme() string {
	data, err := os.ReadFile(s.slotPath(ThemeSlot))
	if err != nil {
		return ""
	}
	var theme string
	if err := json.Unmarshal(data, &theme); err != nil {
		return ""
	}
	return theme
}

// SaveTheme writes the theme name into the theme slot.
func (s *FileStore) SaveTheme(theme string) error {
	data, err := json.Marshal(theme)
	if err != nil {
		return err
	}
	return s.writeSlot(ThemeSlot, data)
}
