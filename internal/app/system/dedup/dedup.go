// internal/app/system/dedup/dedup.go
package dedup

import (
	"strings"
	"unicode"
)

// Reasons reported for a rejected row.
const (
	ReasonEmail   = "email"
	ReasonContact = "contact"
)

// Keys is the identity of one lead as seen by the index.
type Keys struct {
	Email   string `bson:"email"`
	Contact string `bson:"contact"`
}

// Index holds normalized email and contact keys in two independent sets.
// A row is a duplicate when either of its non-empty keys is already present.
// Index is not safe for concurrent use; batch ingestion holds the
// ingestion lock while it owns one.
type Index struct {
	emails   map[string]struct{}
	contacts map[string]struct{}
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		emails:   make(map[string]struct{}),
		contacts: make(map[string]struct{}),
	}
}

// Seed bulk-loads keys from existing records.
func (ix *Index) Seed(existing []Keys) {
	for _, k := range existing {
		ix.Record(k.Email, k.Contact)
	}
}

// IsDuplicate reports whether email or contact has been seen.
func (ix *Index) IsDuplicate(email, contact string) bool {
	_, reason := ix.Check(email, contact)
	return reason != ""
}

// Check is IsDuplicate plus the key that matched. Email is checked first.
func (ix *Index) Check(email, contact string) (bool, string) {
	if e := NormalizeEmail(email); e != "" {
		if _, ok := ix.emails[e]; ok {
			return true, ReasonEmail
		}
	}
	if c := NormalizeContact(contact); c != "" {
		if _, ok := ix.contacts[c]; ok {
			return true, ReasonContact
		}
	}
	return false, ""
}

// Record inserts the non-empty keys.
func (ix *Index) Record(email, contact string) {
	if e := NormalizeEmail(email); e != "" {
		ix.emails[e] = struct{}{}
	}
	if c := NormalizeContact(contact); c != "" {
		ix.contacts[c] = struct{}{}
	}
}

// Len returns the number of distinct emails and contacts held.
func (ix *Index) Len() (emails, contacts int) {
	return len(ix.emails), len(ix.contacts)
}

// NormalizeEmail trims and lower-cases an email key.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeContact keeps only the digits of a phone number.
func NormalizeContact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
