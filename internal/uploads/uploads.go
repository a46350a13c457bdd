// Package uploads stores user supplied chart images and serves them back.
package uploads

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotImage rejects uploads whose content is not an image.
	ErrNotImage = errors.New("Please upload an image file (PNG, JPG, JPEG)")
	// ErrTooLarge rejects uploads above the configured size.
	ErrTooLarge = errors.New("file exceeds the upload size limit")
	// ErrNotFound is returned for file URLs this store did not issue.
	ErrNotFound = errors.New("file not found")
)

// Store saves uploaded files and resolves the URLs it hands out.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, fileURL string) ([]byte, string, error)
}

// Local keeps files in a directory and exposes them under a URL prefix.
type Local struct {
	dir      string
	prefix   string
	maxBytes int64
}

// NewLocal creates dir if needed. prefix is the public path the files are
// served under, e.g. "/files/".
func NewLocal(dir, prefix string, maxBytes int64) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Local{dir: dir, prefix: prefix, maxBytes: maxBytes}, nil
}

// Prefix is the public path files are served under.
func (l *Local) Prefix() string {
	return l.prefix
}

// IsImage reports whether contentType names an image type.
func IsImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	return strings.HasPrefix(strings.ToLower(mediaType), "image/")
}

// Save writes r under a fresh name and returns its public URL. Both the
// declared content type and the sniffed content must be images.
func (l *Local) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if contentType != "" && !IsImage(contentType) {
		return "", ErrNotImage
	}

	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	sniffed := http.DetectContentType(head)
	if !IsImage(sniffed) {
		return "", ErrNotImage
	}

	fileName := uuid.NewString() + extensionFor(name, sniffed)
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	var src io.Reader = br
	if l.maxBytes > 0 {
		src = io.LimitReader(br, l.maxBytes+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if l.maxBytes > 0 && n > l.maxBytes {
		return "", ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, fileName)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	return l.prefix + fileName, nil
}

// Open reads a file previously returned by Save.
func (l *Local) Open(ctx context.Context, fileURL string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	name, ok := l.fileName(fileURL)
	if !ok {
		return nil, "", ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read upload: %w", err)
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// Handler serves stored files. Directory listings are not exposed.
func (l *Local) Handler() http.Handler {
	files := http.StripPrefix(strings.TrimSuffix(l.prefix, "/"), http.FileServer(http.Dir(l.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := l.fileName(r.URL.Path); !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}

// fileName extracts the stored file name from a public URL. Only plain
// names directly under the prefix are accepted.
func (l *Local) fileName(fileURL string) (string, bool) {
	if i := strings.Index(fileURL, l.prefix); i >= 0 {
		fileURL = fileURL[i+len(l.prefix):]
	} else {
		return "", false
	}
	if fileURL == "" || strings.ContainsAny(fileURL, `/\`) || strings.HasPrefix(fileURL, ".") {
		return "", false
	}
	return fileURL, true
}

// DataURL encodes data as an RFC 2397 data URL.
func DataURL(data []byte, contentType string) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func extensionFor(name, contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ""
}
