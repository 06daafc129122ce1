package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createInMemoryImage returns a solid-colour RGBA image.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writePNG encodes img into dir and returns the file path.
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writePNG(t, t.TempDir(), "sheet.png", createInMemoryImage(40, 30, color.White))

	img, err := LoadFile(path, true)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestLoadFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.png")

	_, err := LoadFile(path, false)
	var loadErr *ImageLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *ImageLoadError, got %T (%v)", err, err)
	}
	if loadErr.Path != path {
		t.Errorf("Path: got %q, want %q", loadErr.Path, path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestLoadFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := LoadFile(path, false)
	var loadErr *ImageLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *ImageLoadError, got %T (%v)", err, err)
	}
}

func TestCheckImage(t *testing.T) {
	tests := []struct {
		name    string
		img     image.Image
		wantErr bool
	}{
		{"nil", nil, true},
		{"empty", image.NewGray(image.Rect(0, 0, 0, 0)), true},
		{"zero height", image.NewGray(image.Rect(0, 0, 10, 0)), true},
		{"valid", image.NewGray(image.Rect(0, 0, 1, 1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckImage(tt.img)
			if tt.wantErr {
				var loadErr *ImageLoadError
				if !errors.As(err, &loadErr) {
					t.Errorf("expected *ImageLoadError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestImageCache_Load(t *testing.T) {
	path := writePNG(t, t.TempDir(), "sheet.png", createInMemoryImage(10, 10, color.Black))
	cache := NewImageCache()

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Removing the file proves the second load is served from memory.
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}
	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("cached Load failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached image instance")
	}

	cache.Evict(path)
	if _, err := cache.Load(path); err == nil {
		t.Error("expected error after Evict of a deleted file")
	}
}

func TestImageCache_Clear(t *testing.T) {
	path := writePNG(t, t.TempDir(), "sheet.png", createInMemoryImage(10, 10, color.Black))
	cache := NewImageCache()
	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cache.Clear()
	if len(cache.images) != 0 {
		t.Errorf("expected empty cache, got %d entries", len(cache.images))
	}
}

func TestImageCache_ErrorsNotCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.png")
	cache := NewImageCache()

	if _, err := cache.Load(path); err == nil {
		t.Fatal("expected error for missing file")
	}

	writePNG(t, dir, "late.png", createInMemoryImage(5, 5, color.White))
	if _, err := cache.Load(path); err != nil {
		t.Errorf("expected file to load once present: %v", err)
	}
}

func TestImageCache_Concurrent(t *testing.T) {
	path := writePNG(t, t.TempDir(), "sheet.png", createInMemoryImage(20, 20, color.White))
	cache := NewImageCache()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
}

func TestLoadSheetInfo(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 64, 48))
	path := writePNG(t, t.TempDir(), "scan.png", gray)

	info, err := LoadSheetInfo(NewImageCache(), path)
	if err != nil {
		t.Fatalf("LoadSheetInfo failed: %v", err)
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("dimensions: got %dx%d, want 64x48", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %q, want png", info.Format)
	}
	if !info.Grayscale {
		t.Error("expected Grayscale for a gray PNG")
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d", info.FileSizeBytes)
	}
}

func TestFormatFromExt(t *testing.T) {
	tests := map[string]string{
		"a.png":  "png",
		"a.JPG":  "jpeg",
		"a.jpeg": "jpeg",
		"a.tif":  "tiff",
		"a.TIFF": "tiff",
		"a.bmp":  "bmp",
		"a.webp": "webp",
		"a.gif":  "gif",
		"a.heic": "unknown",
		"a":      "unknown",
	}
	for path, want := range tests {
		if got := formatFromExt(path); got != want {
			t.Errorf("formatFromExt(%q) = %q, want %q", path, got, want)
		}
	}
}
