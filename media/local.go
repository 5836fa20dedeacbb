package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"buzznest/model"
)

// Local writes uploads into a directory that the HTTP server exposes under
// baseURL.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory files are written to.
func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) Upload(ctx context.Context, file io.Reader, filename string, kind models.MediaKind) (string, error) {
	name := uuid.NewString() + extension(filename, kind)

	out, err := os.OpenFile(filepath.Join(l.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}

	if _, err := io.Copy(out, readerWithContext(ctx, file)); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return l.baseURL + "/" + name, nil
}

func extension(filename string, kind models.MediaKind) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" && len(ext) <= 8 && !strings.ContainsAny(ext, `/\`) {
		return ext
	}
	if kind == models.MediaVideo {
		return ".mp4"
	}
	return ".jpg"
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
