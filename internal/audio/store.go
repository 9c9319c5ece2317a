package audio

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// AssetStore is the read-only static asset root the sounds live under.
type AssetStore struct {
	fs afero.Fs
}

// NewAssetStore serves assets from root on the OS filesystem.
func NewAssetStore(root string) *AssetStore {
	return NewAssetStoreFs(afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), root)))
}

// NewAssetStoreFs serves assets from an arbitrary filesystem.
func NewAssetStoreFs(fsys afero.Fs) *AssetStore {
	return &AssetStore{fs: fsys}
}

func clean(src string) (string, bool) {
	p := path.Clean("/" + strings.TrimSpace(src))
	if p == "/" {
		return "", false
	}
	return p, true
}

// Stat reports ErrNotFound when src is missing or is a directory.
func (s *AssetStore) Stat(src string) error {
	p, ok := clean(src)
	if !ok {
		return ErrNotFound
	}
	info, err := s.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	if info.IsDir() {
		return ErrNotFound
	}
	return nil
}

// Open opens src for reading.
func (s *AssetStore) Open(src string) (afero.File, error) {
	if err := s.Stat(src); err != nil {
		return nil, err
	}
	p, _ := clean(src)
	return s.fs.Open(p)
}

// Resolve returns the first candidate present in the store.
func (s *AssetStore) Resolve(ctx context.Context, candidates []string) (string, error) {
	for _, src := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := s.Stat(src)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", ErrExhausted
}

// StoreHandle is a Handle backed by an AssetStore. Start hands the loaded
// path to the OnStart sink, which decides what playing means for the caller.
type StoreHandle struct {
	store   *AssetStore
	onStart func(ctx context.Context, src string) error
	src     string
}

// NewStoreHandle creates a handle over store.
func NewStoreHandle(store *AssetStore, onStart func(ctx context.Context, src string) error) *StoreHandle {
	return &StoreHandle{store: store, onStart: onStart}
}

// Load implements Handle.
func (h *StoreHandle) Load(ctx context.Context, src string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.src = ""
	if err := h.store.Stat(src); err != nil {
		return err
	}
	h.src = src
	return nil
}

// Start implements Handle.
func (h *StoreHandle) Start(ctx context.Context) error {
	if h.src == "" {
		return errors.New("audio: nothing loaded")
	}
	if h.onStart == nil {
		return nil
	}
	return h.onStart(ctx, h.src)
}
