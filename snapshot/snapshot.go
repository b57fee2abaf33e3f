// Package snapshot persists named sets of bitmaps through the codec to
// a blob store, one blob per bitmap plus a JSON manifest. Saves and
// loads fan out concurrently under the resource controller's limits.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/bitgo"
	"github.com/hupe1980/bitgo/blobstore"
	"github.com/hupe1980/bitgo/codec"
	"github.com/hupe1980/bitgo/resource"
)

const (
	manifestVersion = 1
	snapshotPrefix  = "snapshots/"
	manifestBlob    = "manifest.json"
)

var (
	// ErrBadName is returned for empty or slash-containing snapshot names.
	ErrBadName = errors.New("snapshot: invalid name")
	// ErrManifest is returned when a manifest is missing, unreadable, or
	// inconsistent with its blobs.
	ErrManifest = errors.New("snapshot: bad manifest")
)

type manifest struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Bitmaps   []entry   `json:"bitmaps"`
}

type entry struct {
	Name   string `json:"name"`
	Blob   string `json:"blob"`
	Length uint64 `json:"length"`
	Ones   uint64 `json:"ones"`
}

// Manager saves and loads bitmap snapshots.
type Manager struct {
	store       blobstore.Store
	ctrl        *resource.Controller
	compression codec.Compression
	logger      *bitgo.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithCompression selects the codec compression for saved bitmaps.
func WithCompression(c codec.Compression) Option {
	return func(m *Manager) { m.compression = c }
}

// WithController bounds snapshot concurrency and IO throughput.
func WithController(c *resource.Controller) Option {
	return func(m *Manager) { m.ctrl = c }
}

// WithLogger sets the logger.
func WithLogger(l *bitgo.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a snapshot manager on the given store.
func NewManager(store blobstore.Store, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		compression: codec.CompressionZSTD,
		logger:      bitgo.NoopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

func (m *Manager) dir(name string) string {
	return snapshotPrefix + name + "/"
}

// Save persists the bitmap set under the given snapshot name,
// overwriting any previous snapshot of that name. The manifest is
// written last, so a torn save never yields a loadable snapshot.
func (m *Manager) Save(ctx context.Context, name string, bitmaps map[string]*bitgo.Bitmap) error {
	if err := checkName(name); err != nil {
		return err
	}

	keys := make([]string, 0, len(bitmaps))
	for k := range bitmaps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mf := manifest{
		Version:   manifestVersion,
		CreatedAt: time.Now().UTC(),
		Bitmaps:   make([]entry, len(keys)),
	}

	log := m.logger.WithSnapshot(name)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		bm := bitmaps[key]
		g.Go(func() error {
			if err := m.ctrl.AcquireWorker(gctx); err != nil {
				return err
			}
			defer m.ctrl.ReleaseWorker()

			blobName := fmt.Sprintf("%s%06d.bgrl", m.dir(name), i)
			data, err := codec.Encode(bm, codec.WithCompression(m.compression))
			if err != nil {
				return fmt.Errorf("snapshot: encode %q: %w", key, err)
			}

			w, err := m.store.Create(gctx, blobName)
			if err != nil {
				return err
			}
			tw := resource.NewThrottledWriter(gctx, w, m.ctrl)
			if _, err := tw.Write(data); err != nil {
				_ = w.Close()
				return fmt.Errorf("snapshot: write %q: %w", key, err)
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("snapshot: write %q: %w", key, err)
			}

			mf.Bitmaps[i] = entry{
				Name:   key,
				Blob:   blobName,
				Length: bm.Len(),
				Ones:   bm.Count(true),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	data, err := json.Marshal(mf)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, m.dir(name)+manifestBlob, data); err != nil {
		return err
	}

	log.Info("snapshot saved",
		"bitmaps", len(keys), "compression", m.compression.String(),
		"elapsed", time.Since(start))
	return nil
}

// Load reads a snapshot back into memory. Missing snapshots report
// blobstore.ErrNotFound.
func (m *Manager) Load(ctx context.Context, name string) (map[string]*bitgo.Bitmap, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	raw, err := blobstore.ReadAll(ctx, m.store, m.dir(name)+manifestBlob)
	if err != nil {
		return nil, err
	}

	var mf manifest
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	if mf.Version != manifestVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrManifest, mf.Version)
	}

	out := make(map[string]*bitgo.Bitmap, len(mf.Bitmaps))
	bitmaps := make([]*bitgo.Bitmap, len(mf.Bitmaps))

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range mf.Bitmaps {
		g.Go(func() error {
			if err := m.ctrl.AcquireWorker(gctx); err != nil {
				return err
			}
			defer m.ctrl.ReleaseWorker()

			blob, err := m.store.Open(gctx, e.Blob)
			if err != nil {
				return fmt.Errorf("snapshot: open %q: %w", e.Name, err)
			}
			defer func() { _ = blob.Close() }()

			if err := m.ctrl.AcquireIO(gctx, int(blob.Size())); err != nil {
				return err
			}
			data := make([]byte, blob.Size())
			if _, err := readFullAt(blob, data); err != nil {
				return fmt.Errorf("snapshot: read %q: %w", e.Name, err)
			}

			bm, err := codec.Decode(data)
			if err != nil {
				return fmt.Errorf("snapshot: decode %q: %w", e.Name, err)
			}
			if bm.Len() != e.Length || bm.Count(true) != e.Ones {
				return fmt.Errorf("%w: bitmap %q does not match its manifest entry", ErrManifest, e.Name)
			}
			bitmaps[i] = bm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, e := range mf.Bitmaps {
		out[e.Name] = bitmaps[i]
	}

	m.logger.WithSnapshot(name).Debug("snapshot loaded", "bitmaps", len(out))
	return out, nil
}

// List returns the names of all saved snapshots.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	blobs, err := m.store.List(ctx, snapshotPrefix)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, b := range blobs {
		rest, ok := strings.CutPrefix(b, snapshotPrefix)
		if !ok {
			continue
		}
		if name, ok := strings.CutSuffix(rest, "/"+manifestBlob); ok && !strings.Contains(name, "/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a snapshot and all its blobs. The manifest goes
// first, so a half-deleted snapshot is already unloadable.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	if err := m.store.Delete(ctx, m.dir(name)+manifestBlob); err != nil {
		return err
	}

	blobs, err := m.store.List(ctx, m.dir(name))
	if err != nil {
		return err
	}
	for _, b := range blobs {
		if err := m.store.Delete(ctx, b); err != nil {
			return err
		}
	}

	m.logger.WithSnapshot(name).Info("snapshot deleted", "blobs", len(blobs))
	return nil
}

// readFullAt fills p from the start of the blob, tolerating the EOF
// that ReaderAt implementations may return on an exact-length read.
func readFullAt(blob blobstore.Blob, p []byte) (int, error) {
	n, err := blob.ReadAt(p, 0)
	if n == len(p) {
		return n, nil
	}
	if err == nil {
		err = fmt.Errorf("short read: %d of %d bytes", n, len(p))
	}
	return n, err
}
