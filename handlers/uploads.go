package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadPrefix is the URL path profile pictures are served under.
const UploadPrefix = "uploads"

var errBadUpload = errors.New("invalid upload")

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// UploadStore keeps profile pictures on the local disk.
type UploadStore struct {
	Dir     string
	MaxSize int64
}

func NewUploadStore(dir string, maxSize int64) *UploadStore {
	return &UploadStore{Dir: dir, MaxSize: maxSize}
}

// formOverhead is the room left for text fields and multipart framing around the picture.
const formOverhead = 1 << 20

// MaxRequestSize caps a whole profile form request.
func (s *UploadStore) MaxRequestSize() int64 {
	return s.MaxSize + formOverhead
}

// Save writes the file under a random name and returns the public path stored on the user row.
func (s *UploadStore) Save(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExtensions[extension]; !ok {
		return "", fmt.Errorf("%w: unsupported image type %q", errBadUpload, extension)
	}
	if file.Size > s.MaxSize {
		return "", fmt.Errorf("%w: image larger than %dMB", errBadUpload, s.MaxSize>>20)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	filename := uuid.NewString() + extension
	fullPath := filepath.Join(s.Dir, filename)

	in, err := file.Open()
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(fullPath)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(fullPath)
		return "", err
	}
	return path.Join(UploadPrefix, filename), nil
}

// Remove deletes a previously saved file. Only bare file names inside Dir are touched.
func (s *UploadStore) Remove(stored string) {
	if stored == "" {
		return
	}
	name := path.Base(filepath.ToSlash(stored))
	if name == "." || name == "/" || name == ".." {
		return
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[UPLOAD] [ERROR] remove %s: %v", name, err)
	}
}
