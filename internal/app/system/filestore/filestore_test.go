package filestore

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"leads.xlsx", "leads.xlsx"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\Leads March.csv`, "Leads_March.csv"},
		{"", "file"},
		{"résumé.csv", "r__sum__.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), "input %q", tt.in)
	}

	long := strings.Repeat("a", 150) + ".xlsx"
	got := SanitizeName(long)
	assert.Len(t, got, 100)
	assert.True(t, strings.HasSuffix(got, ".xlsx"))
}

func TestSave_LocalBackend(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, Config{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "local", store.Backend())

	at := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	info, err := Save(ctx, store, "March Leads.csv", []byte("name,email\n"), at)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^uploads/2026/03/[0-9a-f-]{36}-March_Leads\.csv$`), info.Path)
	assert.Equal(t, "March Leads.csv", info.FileName)
	assert.EqualValues(t, 11, info.Size)

	body, err := store.GetBytes(ctx, info.Path)
	require.NoError(t, err)
	assert.Equal(t, "name,email\n", string(body))
}

func TestSave_UniquePaths(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(storage.MemoryConfig{})
	at := time.Now()

	a, err := Save(ctx, store, "leads.csv", []byte("a"), at)
	require.NoError(t, err)
	b, err := Save(ctx, store, "leads.csv", []byte("b"), at)
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)

	res, err := store.List(ctx, "uploads/", nil)
	require.NoError(t, err)
	assert.Len(t, res.Objects, 2)
}

func TestSave_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Save(ctx, storage.NewMemory(storage.MemoryConfig{}), "leads.csv", []byte("x"), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RejectsUnknownType(t *testing.T) {
	_, err := New(context.Background(), Config{Type: "ftp"})
	assert.ErrorContains(t, err, "storage_type")

	_, err = New(context.Background(), Config{Type: "local"})
	assert.ErrorIs(t, err, storage.ErrInvalidConfig)
}
