package appregistry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/albertocavalcante/go-appregistry/registry"
)

// Media types of the exported artifacts.
const (
	MediaTypeJSON   = "application/json"
	MediaTypeScript = "application/javascript"
)

// isoLayout is the timestamp layout written into exported metadata.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Artifact is one exported file.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// Bundle is the result of a successful export. JSON and Script were produced
// from the same Document and share Stamp in their names.
type Bundle struct {
	Document Document
	Stamp    string
	JSON     Artifact
	Script   Artifact
}

// ArtifactSink receives exported artifacts.
type ArtifactSink interface {
	WriteArtifact(ctx context.Context, a Artifact) error
}

// Compile-time interface compliance checks
var (
	_ ArtifactSink = (*DirSink)(nil)
	_ ArtifactSink = (*MemorySink)(nil)
)

// DirSink writes artifacts as files in a directory, creating it if needed.
type DirSink struct {
	Dir string
}

// WriteArtifact writes a to Dir/a.Name.
func (s DirSink) WriteArtifact(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, a.Name), a.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", a.Name, err)
	}
	return nil
}

// MemorySink collects artifacts in memory.
type MemorySink struct {
	mu        sync.Mutex
	artifacts []Artifact
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// WriteArtifact records a.
func (s *MemorySink) WriteArtifact(_ context.Context, a Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, a)
	return nil
}

// Artifacts returns everything written so far, in order.
func (s *MemorySink) Artifacts() []Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Artifact, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

// Exporter validates entries and renders them as the JSON document and its
// companion script.
type Exporter struct {
	store  *Store
	sink   ArtifactSink
	now    func() time.Time
	logger *slog.Logger
}

// NewExporter creates an exporter over store. A nil sink makes Export render
// the bundle without writing it anywhere.
func NewExporter(store *Store, sink ArtifactSink, now func() time.Time, logger *slog.Logger) *Exporter {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Exporter{store: store, sink: sink, now: now, logger: logger}
}

// Export renders entries, or the store's entries when nil.
//
// Nothing is produced unless every entry passes Validate; the returned error
// is then the *registry.ValidationErrors. Entries are validated as given and
// normalized afterwards, so a blank label is refused rather than defaulted.
//
// Unset version and updated fields are stamped from the current time. The
// stamps are written back into the store's metadata only after both
// artifacts reached the sink. A sink failure on the script can leave the JSON
// artifact written on its own; the metadata is then left untouched.
func (x *Exporter) Export(ctx context.Context, entries []Entry) (*Bundle, error) {
	if entries == nil {
		entries = x.store.All()
	}
	if err := Validate(entries); err != nil {
		x.logger.Warn("export validation failed", "error", err)
		return nil, err
	}
	working := Canonicalize(entries)

	now := x.now().UTC()
	iso := now.Format(isoLayout)
	doc := x.store.Document(working)
	if doc.Updated == "" {
		doc.Updated = iso
	}
	if doc.Version == "" {
		doc.Version = VersionStamp(now)
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(iso)
	b, err := renderBundle(doc, stamp)
	if err != nil {
		return nil, err
	}

	if x.sink != nil {
		for _, a := range []Artifact{b.JSON, b.Script} {
			if err := x.sink.WriteArtifact(ctx, a); err != nil {
				return nil, fmt.Errorf("export %s: %w", a.Name, err)
			}
		}
	}
	x.store.stampMeta(doc.Updated, doc.Version)

	x.logger.Info("registry exported", "count", len(doc.Apps), "version", doc.Version, "stamp", stamp)
	return b, nil
}

// VersionStamp returns the default version for a document exported at t:
// "v" followed by the UTC date with dots, e.g. "v2025.02.14".
func VersionStamp(t time.Time) string {
	return "v" + t.UTC().Format("2006.01.02")
}

func renderBundle(doc Document, stamp string) (*Bundle, error) {
	jsonData, err := registry.MarshalIndent(doc)
	if err != nil {
		return nil, fmt.Errorf("encode registry document: %w", err)
	}
	script, err := registry.EncodeScript(doc.Metadata, doc.Apps)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Document: doc,
		Stamp:    stamp,
		JSON: Artifact{
			Name:      "app-links-" + stamp + ".json",
			MediaType: MediaTypeJSON,
			Data:      jsonData,
		},
		Script: Artifact{
			Name:      "app-registry-" + stamp + ".js",
			MediaType: MediaTypeScript,
			Data:      script,
		},
	}, nil
}
