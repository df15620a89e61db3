package assets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/romana/rlog"
)

// Store persists an uploaded asset and returns the URL it can be fetched
// from. The payment flow only depends on this capability, so a cloud media
// backend can replace LocalStore without touching the workflow.
type Store interface {
	Store(data []byte, contentType string) (string, error)
}

// LocalStore writes assets under Dir and serves them below BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir string, baseURL string) *LocalStore {
	return &LocalStore{
		Dir:     dir,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *LocalStore) Store(data []byte, contentType string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + extensionFor(contentType)
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", err
	}
	rlog.Infof("Stored asset %s (%d bytes)", name, len(data))
	return s.BaseURL + "/" + name, nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	}
	return ".bin"
}
