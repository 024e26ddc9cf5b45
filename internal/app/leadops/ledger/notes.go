// internal/app/leadops/ledger/notes.go
package ledger

import (
	"context"

	"github.com/dalemusser/leadhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxNoteLength caps note content after sanitizing.
const MaxNoteLength = 4000

// AddNote appends a note. Markup is stripped; notes are plain text.
func (l *Ledger) AddNote(ctx context.Context, id primitive.ObjectID, content string, by models.UpdatedBy) (models.Note, error) {
	text := htmlsanitize.PlainText(content)
	if text == "" {
		return models.Note{}, ErrEmptyNote
	}
	if r := []rune(text); len(r) > MaxNoteLength {
		text = string(r[:MaxNoteLength])
	}
	if _, err := l.Get(ctx, id, by); err != nil {
		return models.Note{}, err
	}

	n := models.Note{
		ID:        primitive.NewObjectID(),
		Content:   text,
		CreatedBy: by.UserID,
		CreatedAt: l.clock(),
	}
	if err := l.Leads.AddNote(ctx, id, n, by); err != nil {
		return models.Note{}, err
	}
	l.invalidate(ctx)
	return n, nil
}

// DeleteNote removes a note by id.
func (l *Ledger) DeleteNote(ctx context.Context, id, noteID primitive.ObjectID, by models.UpdatedBy) error {
	if _, err := l.Get(ctx, id, by); err != nil {
		return err
	}
	ok, err := l.Leads.DeleteNote(ctx, id, noteID, by, l.clock())
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoteNotFound
	}
	l.invalidate(ctx)
	return nil
}
