package export

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Artifact is one finished export file.
type Artifact struct {
	Filename string
	Format   Format
	MIMEType string
	Data     []byte

	// Records is the number of rows encoded.
	Records int
}

// Size returns the artifact length in bytes.
func (a *Artifact) Size() int { return len(a.Data) }

// Sink receives finished artifacts.
type Sink interface {
	Deliver(ctx context.Context, a *Artifact) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, a *Artifact) error

// Deliver implements Sink.
func (f SinkFunc) Deliver(ctx context.Context, a *Artifact) error { return f(ctx, a) }

// DirSink writes artifacts into a directory. Each file is written to a
// temporary name and renamed into place.
type DirSink struct {
	Dir  string
	Perm os.FileMode
}

// NewDirSink creates a sink writing into dir, creating it if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewDeliveryError("dir", dir, err)
	}
	return &DirSink{Dir: dir, Perm: 0o644}, nil
}

// Path returns the destination of filename inside the sink directory.
func (s *DirSink) Path(filename string) string {
	return filepath.Join(s.Dir, SafeName(filename))
}

// Deliver implements Sink.
func (s *DirSink) Deliver(ctx context.Context, a *Artifact) error {
	if err := ctx.Err(); err != nil {
		return NewDeliveryError("dir", a.Filename, err)
	}

	dst := s.Path(a.Filename)
	tmp, err := os.CreateTemp(s.Dir, ".export-*")
	if err != nil {
		return NewDeliveryError("dir", a.Filename, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		return NewDeliveryError("dir", a.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return NewDeliveryError("dir", a.Filename, err)
	}
	if err := os.Chmod(tmpName, s.Perm); err != nil {
		return NewDeliveryError("dir", a.Filename, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return NewDeliveryError("dir", a.Filename, err)
	}
	return nil
}

// ResponseSink streams an artifact as an HTTP download.
type ResponseSink struct {
	W http.ResponseWriter
}

// Deliver implements Sink.
func (s ResponseSink) Deliver(_ context.Context, a *Artifact) error {
	h := s.W.Header()
	h.Set("Content-Type", a.MIMEType)
	h.Set("Content-Length", strconv.Itoa(len(a.Data)))
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", SafeName(a.Filename)))
	s.W.WriteHeader(http.StatusOK)
	if _, err := s.W.Write(a.Data); err != nil {
		return NewDeliveryError("http", a.Filename, err)
	}
	return nil
}

// SafeName strips path separators and parent references so a name stays
// inside its directory.
func SafeName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "\x00", "")
	name = r.Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
