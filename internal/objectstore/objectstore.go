// Package objectstore stores uploaded photo bytes and hands back a public URL
// for them.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrExists   = errors.New("object already exists")
	ErrNotFound = errors.New("object not found")
)

// Object is the result of a successful Put. Path is the key the object can
// later be removed by; for some backends it differs from the requested path.
type Object struct {
	Path string
	URL  string
}

type ObjectStore interface {
	Put(ctx context.Context, objectPath string, r io.Reader, contentType string) (Object, error)
	Remove(ctx context.Context, objectPath string) error
	// PathFromURL recovers the object path from a public URL this store
	// produced. Only rows without a stored path need it.
	PathFromURL(publicURL string) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename keeps the base name of an uploaded file and replaces
// anything outside [A-Za-z0-9._-] with an underscore.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

// UploadPath namespaces an upload by event. The millisecond timestamp keeps
// upload ordering readable; the uuid fragment keeps two uploads of the
// same file in the same millisecond apart.
func UploadPath(eventID string, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s_%s", eventID, now.UnixMilli(), uuid.NewString()[:8], SanitizeFilename(filename))
}

// TrimPublicRoot returns the part of publicURL that follows root, the URL
// prefix a store puts in front of every object path. Query and fragment are
// dropped.
func TrimPublicRoot(root, publicURL string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("empty public root")
	}
	rest, ok := strings.CutPrefix(publicURL, root)
	if !ok {
		return "", fmt.Errorf("url %q is not under %q", publicURL, root)
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	p, err := url.PathUnescape(strings.TrimPrefix(rest, "/"))
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("url %q has no object path", publicURL)
	}
	return p, nil
}
