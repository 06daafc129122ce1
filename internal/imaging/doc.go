// Package imaging provides the raster side of sheet processing.
//
// It loads sheet images from disk, converts them into a BinaryMask of ink
// pixels, crops regions of interest, and renders review overlays. All
// operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based. Rectangles follow the
// image.Rectangle convention: Min is inclusive, Max is exclusive. A
// BinaryMask is always anchored at (0,0) regardless of the bounds of the
// image it was derived from.
//
// # Normalization
//
// Normalize turns a photo or scan into a mask in four steps: grayscale,
// Gaussian smoothing, a Gaussian-weighted local mean, and inverse
// binarization against that mean minus a bias. When built with the gocv tag,
// NormalizeOpenCV provides the same transform on OpenCV.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and may be called concurrently. A BinaryMask is not synchronized;
// once built it is only read.
//
// # Error Handling
//
// Unreadable, undecodable, nil, or empty images are reported as
// *ImageLoadError so that callers can tell a bad sheet apart from a bad
// configuration.
package imaging
