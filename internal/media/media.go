// Package media stores uploaded store logos, either on local disk or in an
// S3-compatible bucket.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	LogoWidth   = 300
	JPEGQuality = 80
)

// ErrInvalidImage covers uploads that are not a decodable PNG or JPEG.
var ErrInvalidImage = errors.New("invalid image")

// Storage persists an object under key and returns its public URL.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// LocalStorage writes objects into Dir, served back under URLPrefix.
type LocalStorage struct {
	Dir       string
	URLPrefix string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{Dir: dir, URLPrefix: "/static/uploads/"}, nil
}

func (l *LocalStorage) Put(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key = filepath.Base(key)
	out, err := os.Create(filepath.Join(l.Dir, key))
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return l.URLPrefix + key, nil
}

// ProcessLogo decodes a PNG or JPEG upload, scales it to LogoWidth keeping
// the aspect ratio and re-encodes it as JPEG.
func ProcessLogo(r io.Reader, filename string) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		img, err = png.Decode(r)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidImage, filepath.Ext(filename))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	resized := resize.Resize(LogoWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveLogo processes an upload and stores it under a random name.
func SaveLogo(ctx context.Context, s Storage, r io.Reader, filename string) (string, error) {
	data, err := ProcessLogo(r, filename)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("logos/%s.jpg", uuid.New().String())
	return s.Put(ctx, key, bytes.NewReader(data), "image/jpeg")
}
