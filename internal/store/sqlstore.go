package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"gitlab.com/dirk.krummacker/contactbook-service/internal/model"
)

// SQLStore keeps the slots in a MySQL table with one row per slot. The
// whole slot value is replaced on every save, exactly like the file
// backend. The schema is created by cmd/migration from
// scripts/database.sql.
type SQLStore struct {
	db         *sqlx.DB
	upsertSlot *sqlx.Stmt
	selectSlot *sqlx.Stmt
}

// CreateDatabase initializes and returns a database connection. The
// connection parameters are taken from the system's environment variables.
func CreateDatabase() *sql.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/test?parseTime=true",
		os.Getenv("DBUSER"), os.Getenv("DBPWD"), os.Getenv("DBHOST"))
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal(err)
	}
	return sqlDB
}

// NewSQLStore initializes the sqlx database wrapper with the specified sql
// database and prepares all statements. The database argument can be a real
// database for production use or a mock database within unit tests.
func NewSQLStore(sqlDB *sql.DB) *SQLStore {
	s := &SQLStore{db: sqlx.NewDb(sqlDB, "mysql")}

	// Prepared statements offer a significant speed increase if executed many times.
	var err error
	s.upsertSlot, err = s.db.Preparex(`
		INSERT INTO slots (k, v) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE v = VALUES(v)
	`)
	if err != nil {
		log.Fatal(err)
	}
	s.selectSlot, err = s.db.Preparex(`
		SELECT v FROM slots WHERE k = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	return s
}

// readSlot returns the raw slot value, or ok=false if the slot row does
// not exist or cannot be read.
func (s *SQLStore) readSlot(slot string) (value string, ok bool) {
	if err := s.selectSlot.Get(&value, slot); err != nil {
		return "", false
	}
	return value, true
}

// LoadContacts reads the contacts slot. A missing row or a value that does
// not parse as a contact array yields an empty collection.
func (s *SQLStore) LoadContacts() []model.Contact {
	value, ok := s.readSlot(ContactsSlot)
	if !ok {
		return []model.Contact{}
	}
	var contacts []model.Contact
	if err := json.Unmarshal([]byte(value), &contacts); err != nil || contacts == nil {
		return []model.Contact{}
	}
	return contacts
}

// SaveContacts serializes the full collection into the contacts slot row.
func (s *SQLStore) SaveContacts(contacts []model.Contact) error {
	if contacts == nil {
		contacts = []model.Contact{}
	}
	data, err := json.Marshal(contacts)
	if err != nil {
		return err
	}
	_, err = s.upsertSlot.Exec(ContactsSlot, string(data))
	return err
}

// LoadTheme reads the theme slot row, returning "" if none exists.
func (s *SQLStore) LoadTheme() string {
	value, ok := s.readSlot(ThemeSlot)
	if !ok {
		return ""
	}
	var theme string
	if err := json.Unmarshal([]byte(value), &theme); err != nil {
		return ""
	}
	return theme
}

// SaveTheme writes the theme name into the theme slot row.
func (s *SQLStore) SaveTheme(theme string) error {
	data, err := json.Marshal(theme)
	if err != nil {
		return err
	}
	_, err = s.upsertSlot.Exec(ThemeSlot, string(data))
	return err
}
