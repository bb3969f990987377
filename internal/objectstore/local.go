package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local keeps objects on disk under BaseDir/Bucket and serves them from
// PublicBaseURL/Bucket.
type Local struct {
	BaseDir       string
	Bucket        string
	PublicBaseURL string
}

func NewLocal(baseDir, bucket, publicBaseURL string) (*Local, error) {
	l := &Local{
		BaseDir:       baseDir,
		Bucket:        bucket,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
	if err := os.MkdirAll(l.root(), os.ModePerm); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Local) root() string {
	return filepath.Join(l.BaseDir, l.Bucket)
}

// PublicRoot is the URL prefix of every object in the bucket.
func (l *Local) PublicRoot() string {
	return l.PublicBaseURL + "/" + l.Bucket + "/"
}

func (l *Local) PathFromURL(publicURL string) (string, error) {
	p, err := TrimPublicRoot(l.PublicRoot(), publicURL)
	if err != nil {
		return "", err
	}
	key, _, err := l.resolve(p)
	return key, err
}

// resolve confines objectPath to the bucket directory and returns both the
// cleaned slash-separated key and the file it maps to.
func (l *Local) resolve(objectPath string) (key string, full string, err error) {
	clean := path.Clean("/" + strings.ReplaceAll(objectPath, "\\", "/"))
	if clean == "/" {
		return "", "", fmt.Errorf("invalid object path %q", objectPath)
	}
	key = strings.TrimPrefix(clean, "/")
	return key, filepath.Join(l.root(), filepath.FromSlash(key)), nil
}

func (l *Local) Put(ctx context.Context, objectPath string, r io.Reader, contentType string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	key, full, err := l.resolve(objectPath)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return Object{}, err
	}

	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return Object{}, ErrExists
		}
		return Object{}, err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(full)
		return Object{}, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(full)
		return Object{}, err
	}

	return Object{
		Path: key,
		URL:  l.PublicRoot() + key,
	}, nil
}

func (l *Local) Remove(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, full, err := l.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
