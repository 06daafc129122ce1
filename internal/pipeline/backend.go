package pipeline

import (
	"image"
	"sort"
	"sync"

	"github.com/gauravn17/ImpactOCR/internal/config"
	"github.com/gauravn17/ImpactOCR/internal/detection"
	"github.com/gauravn17/ImpactOCR/internal/imaging"
)

// Backend performs the pixel-level stages of the pipeline: producing the
// mark mask and locating bubbles in it. Grouping, scoring and resolution are
// shared by every backend.
type Backend interface {
	Normalize(img image.Image, opts imaging.NormalizeOptions) (*imaging.BinaryMask, error)
	Locate(mask *imaging.BinaryMask, geom detection.Geometry) ([]detection.Region, error)
}

// nativeBackend is the pure Go implementation.
type nativeBackend struct{}

func (nativeBackend) Normalize(img image.Image, opts imaging.NormalizeOptions) (*imaging.BinaryMask, error) {
	return imaging.Normalize(img, opts)
}

func (nativeBackend) Locate(mask *imaging.BinaryMask, geom detection.Geometry) ([]detection.Region, error) {
	return detection.Locate(mask, geom), nil
}

var (
	backendsMu sync.RWMutex
	backends   = map[string]Backend{
		config.BackendNative: nativeBackend{},
	}
)

// RegisterBackend makes a backend available under name. Registering a name
// twice replaces the earlier backend.
func RegisterBackend(name string, b Backend) {
	backendsMu.Lock()
	backends[name] = b
	backendsMu.Unlock()
}

// Backends returns the names of the registered backends, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupBackend(name string) (Backend, error) {
	backendsMu.RLock()
	b, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		reason := "backend not available"
		if name == config.BackendOpenCV {
			reason = "backend not built in, rebuild with -tags gocv"
		}
		return nil, &config.ConfigurationError{Field: "backend", Value: name, Reason: reason}
	}
	return b, nil
}
