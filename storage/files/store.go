// Package files stores note payloads on the local filesystem.
package files

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kazadi/maktaba/core"
	"github.com/kazadi/maktaba/core/note"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type Store struct {
	dir        string
	maxSize    int64
	extensions []string
}

var _ note.FileStore = (*Store)(nil)

func NewStore(conf *core.Config) (*Store, error) {
	if err := os.MkdirAll(conf.Uploads.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload dir")
	}
	return &Store{
		dir:        conf.Uploads.Dir,
		maxSize:    conf.Uploads.MaxSize,
		extensions: conf.Uploads.AllowedExtensions,
	}, nil
}

func (s *Store) allowed(ext string) bool {
	for _, allowed := range s.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// sanitizeName strips path components and unsafe characters from a
// client-provided filename.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	return strings.Trim(name, "._")
}

// Save stores src under "<uuid>_<sanitized original name>" and returns the
// stored name. The original extension must be in the allowed list and size
// must not exceed the configured maximum.
func (s *Store) Save(originalName string, size int64, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !s.allowed(ext) {
		return "", note.ErrFileExtension
	}
	if size > s.maxSize {
		return "", note.ErrFileTooLarge
	}

	stored := uuid.New().String() + "_" + sanitizeName(originalName)
	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", errors.Wrap(err, "creating stored file")
	}
	defer func() { _ = dst.Close() }()

	// the size header is client-provided; cap the copy too
	n, err := io.Copy(dst, io.LimitReader(src, s.maxSize+1))
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", errors.Wrap(err, "writing stored file")
	}
	if n > s.maxSize {
		_ = os.Remove(dst.Name())
		return "", note.ErrFileTooLarge
	}
	return stored, nil
}

// Path resolves a stored name to an absolute path. Names that escape the
// store directory or do not exist resolve to note.ErrNotFound.
func (s *Store) Path(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", note.ErrNotFound
	}
	path := filepath.Join(s.dir, storedName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", note.ErrNotFound
		}
		return "", errors.Wrap(err, "resolving stored file")
	}
	return path, nil
}

func (s *Store) Remove(storedName string) error {
	path, err := s.Path(storedName)
	if err != nil {
		return err
	}
	return errors.Wrap(os.Remove(path), "removing stored file")
}
