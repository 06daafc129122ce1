package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder (common scanner output)
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageLoadError reports that a sheet image could not be read, decoded, or
// was empty. It is fatal for the sheet it belongs to and nothing else.
type ImageLoadError struct {
	// Path is the source file, empty for in-memory images.
	Path string

	// Err is the underlying cause.
	Err error
}

func (e *ImageLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("image load failed: %v", e.Err)
	}
	return fmt.Sprintf("image load failed for %s: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error {
	return e.Err
}

// LoadFile opens and decodes a sheet image from disk.
//
// Supported formats are PNG, JPEG, GIF, TIFF, BMP and WebP. When autoOrient
// is set, the EXIF orientation tag of JPEG photos is applied so that phone
// captures come out upright. Every failure is returned as *ImageLoadError.
func LoadFile(path string, autoOrient bool) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ImageLoadError{Path: path, Err: fmt.Errorf("failed to open image: %w", err)}
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(autoOrient))
	if err != nil {
		return nil, &ImageLoadError{Path: path, Err: fmt.Errorf("failed to decode image: %w", err)}
	}
	if err := checkImage(path, img); err != nil {
		return nil, err
	}
	return img, nil
}

// CheckImage verifies that an in-memory raster is usable as a sheet.
// A nil image or one with an empty pixel grid yields *ImageLoadError.
func CheckImage(img image.Image) error {
	return checkImage("", img)
}

func checkImage(path string, img image.Image) error {
	if img == nil {
		return &ImageLoadError{Path: path, Err: fmt.Errorf("no image")}
	}
	if img.Bounds().Empty() {
		return &ImageLoadError{Path: path, Err: fmt.Errorf("image has no pixels (%dx%d)", img.Bounds().Dx(), img.Bounds().Dy())}
	}
	return nil
}

// ImageCache provides thread-safe caching of loaded sheets to avoid redundant disk reads.
//
// The cache is meant for interactive use where the same sheet is inspected by
// several tool calls in a row. Batch grading loads each sheet directly with
// LoadFile so that a sheet's pixels are released as soon as it is graded.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	// AutoOrient applies EXIF orientation on decode. Set it before first use.
	AutoOrient bool

	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// The image is cached using the exact path string provided. Errors are
// *ImageLoadError values and are never cached.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := LoadFile(path, c.AutoOrient)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// SheetInfo contains metadata about a loaded sheet image.
type SheetInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif", "tiff", "bmp", "webp", or "unknown".
	// Detection is based on file extension, not file contents.
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// Grayscale is true when the decoded raster has a single channel.
	Grayscale bool `json:"grayscale"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadSheetInfo loads a sheet through the cache and reports its metadata.
func LoadSheetInfo(cache *ImageCache, path string) (*SheetInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := describe(img)
	info.Format = formatFromExt(path)
	info.FileSizeBytes = stat.Size()
	return info, nil
}

// describe inspects the concrete raster type of a decoded image.
func describe(img image.Image) *SheetInfo {
	bounds := img.Bounds()
	info := &SheetInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		ColorDepth: "8-bit",
	}

	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		info.HasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
		info.ColorDepth = "16-bit"
	case *image.Gray:
		info.Grayscale = true
	case *image.Gray16:
		info.Grayscale = true
		info.ColorDepth = "16-bit"
	}
	return info
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".tif", ".tiff":
		return "tiff"
	case ".bmp":
		return "bmp"
	case ".webp":
		return "webp"
	}
	return "unknown"
}
