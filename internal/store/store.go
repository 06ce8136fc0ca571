// Package store persists the contact collection and the theme preference
// as whole values in named slots of a durable key-value store. A save
// replaces the previous slot value completely; there are no partial writes
// and no transactions beyond last-full-write-wins.
package store

import "gitlab.com/dirk.krummacker/contactbook-service/internal/model"

// Slot keys of the durable store.
const (
	ContactsSlot = "contacts"
	ThemeSlot    = "theme"
)

// Store is the persistence adapter behind the contact book. Loading never
// fails: a missing or unparseable slot is equivalent to "no contacts yet"
// respectively "no theme chosen yet".
type Store interface {
	// LoadContacts returns the stored collection, or an empty one if the
	// contacts slot is absent or corrupt.
	LoadContacts() []model.Contact

	// SaveContacts serializes the full collection into the contacts slot,
	// discarding the previous value.
	SaveContacts(contacts []model.Contact) error

	// LoadTheme returns the stored theme name, or "" if none is stored.
	LoadTheme() string

	// SaveTheme writes the theme name into the theme slot.
	SaveTheme(theme string) error
}
