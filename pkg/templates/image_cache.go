package templates

import (
	"image"
	_ "image/jpeg" // jpeg templates
	_ "image/png"  // png templates
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/gift"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp" // bmp templates, as saved by Windows screenshot tools
)

// imageExtensions lists the file types accepted as template images
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// IsImageFile reports whether path has a supported image extension
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ImageCache decodes template images once per path
type ImageCache struct {
	fs     afero.Fs
	images map[string]*image.RGBA
	mu     sync.RWMutex
	stats  CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits   int64 // Cache hits
	Misses int64 // Cache misses (had to load)
}

// NewImageCache creates a new image cache reading from fs
func NewImageCache(fs afero.Fs) *ImageCache {
	return &ImageCache{
		fs:     fs,
		images: make(map[string]*image.RGBA),
	}
}

// Get returns the decoded image for path, loading it on first use
func (ic *ImageCache) Get(path string) (*image.RGBA, error) {
	key := filepath.Clean(path)

	ic.mu.RLock()
	img, ok := ic.images[key]
	ic.mu.RUnlock()

	if ok {
		ic.mu.Lock()
		ic.stats.Hits++
		ic.mu.Unlock()
		return img, nil
	}

	img, err := decodeImage(ic.fs, key)
	if err != nil {
		return nil, err
	}

	ic.mu.Lock()
	ic.images[key] = img
	ic.stats.Misses++
	ic.mu.Unlock()

	return img, nil
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.stats
}

// decodeImage reads and decodes one template image
func decodeImage(fs afero.Fs, path string) (*image.RGBA, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open template file %s", path)
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode template %s", path)
	}

	if src.Bounds().Dx() < 1 || src.Bounds().Dy() < 1 {
		return nil, errors.Wrapf(ErrEmptyImage, "template %s", path)
	}

	return toRGBA(src), nil
}

// toRGBA normalises any decoded image to a zero-origin RGBA buffer. The
// colour channels are kept unpremultiplied, the way the source file stores
// them, since matching compares R, G and B only. The result breaks the
// premultiplied contract of image.RGBA for translucent pixels; see
// cv.Template.Image.
func toRGBA(src image.Image) *image.RGBA {
	g := gift.New()
	nrgba := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(nrgba, src)

	return &image.RGBA{
		Pix:    nrgba.Pix,
		Stride: nrgba.Stride,
		Rect:   nrgba.Rect,
	}
}
