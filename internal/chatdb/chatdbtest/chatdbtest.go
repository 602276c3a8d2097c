// Package chatdbtest builds throwaway chat.db files for tests.
package chatdbtest

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/matheus3301/imsg/internal/chatdb/chatdbtest/migrations"
	_ "github.com/mattn/go-sqlite3"
)

// Store is a writable handle on a fixture chat.db.
type Store struct {
	*sql.DB
	Path string

	t testing.TB
}

// New creates a migrated chat.db under t.TempDir. It is closed when the test
// ends.
func New(t testing.TB) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}
	return &Store{DB: db, Path: path, t: t}
}

// Migrate applies the fixture schema to db.
func Migrate(db *sql.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

// Chat describes a chat row. Empty optional strings are stored as NULL.
type Chat struct {
	GUID        string
	Style       int64
	Identifier  string
	Service     string
	DisplayName string
	Archived    bool
}

// Message describes a message row. Date is in store epoch nanoseconds.
type Message struct {
	GUID     string
	Text     string
	HandleID int64
	Service  string
	Date     int64
	FromMe   bool
}

// Attachment describes an attachment row.
type Attachment struct {
	GUID         string
	Filename     string
	MIMEType     string
	TransferName string
	TotalBytes   int64
}

// AddChat inserts a chat and returns its ROWID.
func (s *Store) AddChat(c Chat) int64 {
	s.t.Helper()
	if c.Style == 0 {
		c.Style = 45
	}
	if c.Identifier == "" {
		c.Identifier = c.GUID
	}
	return s.insert(`INSERT INTO chat (guid, style, chat_identifier, service_name, display_name, group_id, is_archived, is_filtered)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		c.GUID, c.Style, c.Identifier, nullString(c.Service), nullString(c.DisplayName), c.GUID, c.Archived)
}

// AddHandle inserts a handle and returns its ROWID.
func (s *Store) AddHandle(address, service string) int64 {
	s.t.Helper()
	return s.insert(`INSERT INTO handle (id, country, service) VALUES (?, 'us', ?)`, address, service)
}

// AddParticipant links a handle to a chat.
func (s *Store) AddParticipant(chatID, handleID int64) {
	s.t.Helper()
	s.insert(`INSERT INTO chat_handle_join (chat_id, handle_id) VALUES (?, ?)`, chatID, handleID)
}

// AddMessage inserts a message without linking it to any chat.
func (s *Store) AddMessage(m Message) int64 {
	s.t.Helper()
	return s.insert(`INSERT INTO message (guid, text, handle_id, service, date, is_from_me) VALUES (?, ?, ?, ?, ?, ?)`,
		m.GUID, nullString(m.Text), m.HandleID, nullString(m.Service), m.Date, m.FromMe)
}

// AddMessageTo inserts a message and links it to chatID.
func (s *Store) AddMessageTo(chatID int64, m Message) int64 {
	s.t.Helper()
	id := s.AddMessage(m)
	s.LinkMessage(chatID, id, m.Date)
	return id
}

// LinkMessage inserts a chat_message_join row.
func (s *Store) LinkMessage(chatID, messageID, date int64) {
	s.t.Helper()
	s.insert(`INSERT INTO chat_message_join (chat_id, message_id, message_date) VALUES (?, ?, ?)`, chatID, messageID, date)
}

// AddAttachment inserts an attachment and returns its ROWID.
func (s *Store) AddAttachment(a Attachment) int64 {
	s.t.Helper()
	if a.TransferName == "" {
		a.TransferName = filepath.Base(a.Filename)
	}
	return s.insert(`INSERT INTO attachment (guid, filename, mime_type, transfer_name, total_bytes, original_guid)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.GUID, nullString(a.Filename), nullString(a.MIMEType), a.TransferName, a.TotalBytes, a.GUID)
}

// LinkAttachment attaches an attachment to a message.
func (s *Store) LinkAttachment(messageID, attachmentID int64) {
	s.t.Helper()
	s.insert(`INSERT INTO message_attachment_join (message_id, attachment_id) VALUES (?, ?)`, messageID, attachmentID)
}

// MustExec runs a statement, failing the test on error.
func (s *Store) MustExec(query string, args ...any) {
	s.t.Helper()
	if _, err := s.Exec(query, args...); err != nil {
		s.t.Fatalf("exec %q: %v", query, err)
	}
}

func (s *Store) insert(query string, args ...any) int64 {
	s.t.Helper()
	res, err := s.Exec(query, args...)
	if err != nil {
		s.t.Fatalf("insert: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		s.t.Fatalf("last insert id: %v", err)
	}
	return id
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
