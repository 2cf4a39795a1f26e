// Package export builds the operator-initiated data export document: a
// single JSON file with sanitized users, connections, and messages.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/errors"
)

// Document is the export file layout. Arrays are always present, never null,
// so downstream tooling can index them without nil checks.
type Document struct {
	Users       []api.User       `json:"users"`
	Connections []api.Connection `json:"connections"`
	Messages    []api.Message    `json:"messages"`
	ExportDate  time.Time        `json:"exportDate"`
}

// Build assembles a sanitized document. Credentials never leave the tool:
// password hashes are stripped from every user.
func Build(users []api.User, conns []api.Connection, messages []api.Message, now time.Time) Document {
	sanitized := make([]api.User, len(users))
	for i, u := range users {
		u.PasswordHash = ""
		sanitized[i] = u
	}

	if conns == nil {
		conns = []api.Connection{}
	}
	if messages == nil {
		messages = []api.Message{}
	}

	return Document{
		Users:       sanitized,
		Connections: conns,
		Messages:    messages,
		ExportDate:  now.UTC(),
	}
}

// Filename returns the conventional export file name,
// "<subject>-export-<ISO date>.json".
func Filename(subject string, now time.Time) string {
	if subject == "" {
		subject = "platform"
	}
	return fmt.Sprintf("%s-export-%s.json", subject, now.UTC().Format("2006-01-02"))
}

// Write encodes the document as indented JSON.
func Write(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.WrapWithCode(err, errors.ErrExport,
			"Failed to encode export document",
			"This is a bug; please report it")
	}
	return nil
}

// WriteFile writes the document to path, creating or truncating the file.
func WriteFile(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExport,
			"Cannot create export file "+path,
			"Check directory permissions and free space")
	}
	defer f.Close() //nolint:errcheck // Close also happens via the explicit path below

	if err := Write(f, doc); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExport,
			"Failed to finish writing "+path,
			"Check free space on the target filesystem")
	}
	return nil
}
