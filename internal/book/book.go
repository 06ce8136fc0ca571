// Package book implements the contact book core: the authoritative
// in-memory contact list with its mutation operations, and the pure query
// engine producing the filtered and sorted view of it. Every successful
// mutation is written through to the persistence adapter before the
// operation returns.
package book

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/dirk.krummacker/contactbook-service/internal/model"
	"gitlab.com/dirk.krummacker/contactbook-service/internal/store"
)

// ErrNotFound is returned when an operation targets an id that is not in
// the collection.
var ErrNotFound = errors.New("contact not found")

// ErrInvalidFormat is returned when an import payload is not a JSON array
// of contact records.
var ErrInvalidFormat = errors.New("invalid file format")

// Book owns the in-memory contact collection. The slice order is insertion
// order; sorting happens only in the query engine and never changes the
// stored order. Construct one Book per process and pass it by reference to
// whichever layer needs it.
//
// The HTTP layer serves every request on its own goroutine, so the book
// serializes access itself: each operation holds the mutex from lookup
// through the persistence write.
type Book struct {
	mu       sync.Mutex
	store    store.Store
	contacts []model.Contact
}

// New creates a contact book backed by the given store and loads the
// stored collection into memory.
func New(s store.Store) *Book {
	return &Book{store: s, contacts: s.LoadContacts()}
}

// now returns the timestamp written into DateAdded and LastModified. The
// fixed millisecond precision keeps the strings lexicographically ordered
// and matches the timestamps of previously exported files.
func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// trimTextFields returns the fields with all free-text values trimmed.
// Group is trimmed too: the group filter matches exactly, so a stray
// space would silently hide the contact from its group. Birthday is a
// constrained ISO date and taken verbatim.
func trimTextFields(c model.Contact) model.Contact {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Company = strings.TrimSpace(c.Company)
	c.JobTitle = strings.TrimSpace(c.JobTitle)
	c.Address = strings.TrimSpace(c.Address)
	c.Notes = strings.TrimSpace(c.Notes)
	c.Group = strings.TrimSpace(c.Group)
	return c
}

// indexOf returns the position of the contact with the given id, or -1.
func (b *Book) indexOf(id string) int {
	for i, c := range b.contacts {
		if c.Id == id {
			return i
		}
	}
	return -1
}

// save writes the full collection through to the store.
func (b *Book) save() error {
	return b.store.SaveContacts(b.contacts)
}

// Create appends a new contact built from the given fields. All text
// fields may be empty; no validation beyond trimming is applied. The id is
// a fresh UUID, so two creates within the same clock tick cannot collide.
func (b *Book) Create(fields model.Contact) (model.Contact, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := trimTextFields(fields)
	c.Id = uuid.NewString()
	c.Favorite = false
	c.DateAdded = now()
	c.LastModified = c.DateAdded
	b.contacts = append(b.contacts, c)
	return c, b.save()
}

// Update replaces all fields of the contact with the given id except Id,
// DateAdded, and Favorite, which are carried over from the existing
// record. The edit form does not transport favorite state, so the prior
// value survives every edit.
func (b *Book) Update(id string, fields model.Contact) (model.Contact, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i == -1 {
		return model.Contact{}, ErrNotFound
	}
	c := trimTextFields(fields)
	c.Id = b.contacts[i].Id
	c.DateAdded = b.contacts[i].DateAdded
	c.Favorite = b.contacts[i].Favorite
	c.LastModified = now()
	b.contacts[i] = c
	return c, b.save()
}

// Delete removes the contact with the given id. The returned flag reports
// whether a removal occurred; the collection is persisted either way.
func (b *Book) Delete(id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i == -1 {
		return false, b.save()
	}
	b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
	return true, b.save()
}

// BulkDelete removes every contact whose id is in the given set and
// reports how many were removed. An empty set is a no-op that does not
// touch the store. The store is written once, not once per record.
func (b *Book) BulkDelete(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}
	kept := b.contacts[:0]
	removed := 0
	for _, c := range b.contacts {
		if doomed[c.Id] {
			removed++
		} else {
			kept = append(kept, c)
		}
	}
	b.contacts = kept
	return removed, b.save()
}

// ToggleFavorite flips the favorite flag of the contact with the given id.
// LastModified is left alone: favorite is display metadata, not record
// content.
func (b *Book) ToggleFavorite(id string) (model.Contact, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i == -1 {
		return model.Contact{}, ErrNotFound
	}
	b.contacts[i].Favorite = !b.contacts[i].Favorite
	return b.contacts[i], b.save()
}

// MergeImport parses data as a JSON array of contacts and appends every
// record whose id is not already in the collection. Only ids present
// before the import are checked, so duplicates within the imported file
// itself are all appended. Imported records are trusted as-is: their ids
// and timestamps are not reassigned. Returns the number of records
// appended.
func (b *Book) MergeImport(data []byte) (int, error) {
	var incoming []model.Contact
	if err := json.Unmarshal(data, &incoming); err != nil || incoming == nil {
		return 0, ErrInvalidFormat
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	existing := make(map[string]bool, len(b.contacts))
	for _, c := range b.contacts {
		existing[c.Id] = true
	}
	added := 0
	for _, c := range incoming {
		if existing[c.Id] {
			continue
		}
		b.contacts = append(b.contacts, c)
		added++
	}
	return added, b.save()
}

// Get returns the contact with the given id. This is how the edit flow
// recovers the full record: the UI passes the id back instead of
// round-tripping records through rendered markup.
func (b *Book) Get(id string) (model.Contact, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i == -1 {
		return model.Contact{}, ErrNotFound
	}
	return b.contacts[i], nil
}

// Contacts returns a copy of the collection in insertion order.
func (b *Book) Contacts() []model.Contact {
	b.mu.Lock()
	defer b.mu.Unlock()
	contacts := make([]model.Contact, len(b.contacts))
	copy(contacts, b.contacts)
	return contacts
}

// Stats returns the total number of contacts and how many are favorites.
func (b *Book) Stats() (total int, favorites int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.contacts {
		if c.Favorite {
			favorites++
		}
	}
	return len(b.contacts), favorites
}

// Export serializes the collection as an indented JSON array, the same
// shape the store persists, so an exported file can be imported again
// unchanged.
func (b *Book) Export() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	contacts := b.contacts
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return json.MarshalIndent(contacts, "", "  ")
}
