// internal/app/system/filestore/filestore.go
package filestore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the size limit.
var ErrTooLarge = errors.New("file exceeds the upload size limit")

// Config selects and configures the storage backend for uploaded spreadsheets.
type Config struct {
	Type      string // "local" or "s3"
	LocalPath string

	S3Region string
	S3Bucket string
	S3Prefix string
}

// New builds the storage.Store described by cfg.
func New(ctx context.Context, cfg Config) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "local":
		return storage.NewLocal(storage.LocalConfig{BasePath: cfg.LocalPath})
	case "s3":
		return storage.NewS3(ctx, storage.S3Config{
			Region: cfg.S3Region,
			Bucket: cfg.S3Bucket,
			Prefix: cfg.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage_type %q (want local or s3)", cfg.Type)
	}
}

// Info describes an archived spreadsheet.
type Info struct {
	Path        string
	FileName    string
	Size        int64
	ContentType string
}

// Save writes data to store under uploads/YYYY/MM/<uuid>-<sanitized name>,
// dated by at.
func Save(ctx context.Context, store storage.Store, filename string, data []byte, at time.Time) (Info, error) {
	at = at.UTC()
	p := path.Join("uploads",
		fmt.Sprintf("%04d", at.Year()),
		fmt.Sprintf("%02d", int(at.Month())),
		uuid.NewString()+"-"+SanitizeName(filename))

	ct := storage.DetectContentType(p, data)
	opts := &storage.PutOptions{
		ContentType:        ct,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", SanitizeName(filename)),
		IfNotExists:        true,
	}
	if err := store.PutBytes(ctx, p, data, opts); err != nil {
		return Info{}, fmt.Errorf("store upload: %w", err)
	}
	return Info{Path: p, FileName: filename, Size: int64(len(data)), ContentType: ct}, nil
}

// SanitizeName reduces filename to its base name with only letters,
// digits, '-', '_' and '.' kept; everything else becomes '_'. Names are
// capped at 100 bytes, keeping a short extension.
func SanitizeName(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	out := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if allowed(c) {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "file"
	}
	if len(out) > 100 {
		ext := filepath.Ext(string(out))
		if len(ext) > 0 && len(ext) < 10 {
			out = append(out[:100-len(ext)], ext...)
		} else {
			out = out[:100]
		}
	}
	return string(out)
}

func allowed(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
