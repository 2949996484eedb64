package upload

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"
	"path/filepath"

	"github.com/terrawatch/terrawatch/internal/api"
)

// ErrNotImage is returned when a selected file is not a supported image
var ErrNotImage = errors.New("file is not a supported image (jpeg, png, gif)")

// Image describes a selected local image
type Image struct {
	Path        string
	Name        string
	Size        int64
	Format      string
	ContentType string
	Width       int
	Height      int
	Preview     string
}

// Slot holds at most one selected image and its preview handle
type Slot struct {
	registry *Registry
	image    *Image
}

// NewSlot creates an empty slot backed by registry
func NewSlot(registry *Registry) *Slot {
	return &Slot{registry: registry}
}

// Select validates path as an image and makes it the slot's selection.
// The previous preview is revoked only once the new file is accepted.
func (s *Slot) Select(path string) (*Image, error) {
	img, err := inspect(path)
	if err != nil {
		return nil, err
	}

	img.Preview = s.registry.Create(img.Path)
	if s.image != nil {
		s.registry.Revoke(s.image.Preview)
	}
	s.image = img
	return img, nil
}

// Clear drops the selection and revokes its preview
func (s *Slot) Clear() {
	if s.image == nil {
		return
	}
	s.registry.Revoke(s.image.Preview)
	s.image = nil
}

// Image returns the current selection or nil
func (s *Slot) Image() *Image {
	return s.image
}

// Empty reports whether nothing is selected
func (s *Slot) Empty() bool {
	return s.image == nil
}

// Open returns the selection as a multipart file. The caller closes the returned closer.
func (s *Slot) Open() (api.ImageFile, io.Closer, error) {
	if s.image == nil {
		return api.ImageFile{}, nil, errors.New("no image selected")
	}
	f, err := os.Open(s.image.Path)
	if err != nil {
		return api.ImageFile{}, nil, fmt.Errorf("open %s: %w", s.image.Name, err)
	}
	return api.ImageFile{
		Name:        s.image.Name,
		ContentType: s.image.ContentType,
		Content:     f,
	}, f, nil
}

func inspect(path string) (*Image, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNotImage)
	}

	return &Image{
		Path:        abs,
		Name:        filepath.Base(abs),
		Size:        info.Size(),
		Format:      format,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// Pair is the before/after selection of an upload
type Pair struct {
	Before *Slot
	After  *Slot
}

// NewPair creates two empty slots sharing registry
func NewPair(registry *Registry) *Pair {
	return &Pair{Before: NewSlot(registry), After: NewSlot(registry)}
}

// Complete reports whether both images are selected
func (p *Pair) Complete() bool {
	return !p.Before.Empty() && !p.After.Empty()
}

// Release clears both slots
func (p *Pair) Release() {
	p.Before.Clear()
	p.After.Clear()
}
