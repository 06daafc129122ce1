// Package detection turns a mark mask into answered questions.
//
// It covers the geometric half of bubble-sheet grading:
//
//   - Locate: extract outer contours and keep the bubble-shaped ones
//   - Group: order bubbles top-to-bottom, left-to-right and split them into
//     questions of a fixed number of options
//   - FillRatios: measure how much of each bubble is inked
//   - Resolve: choose the selected option of a question, if any
//
// Every stage is a pure function of its inputs and holds no state, so sheets
// may be processed concurrently.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Known Limitations
//
//   - Geometry bounds are in pixels and depend on scan resolution unless
//     Geometry.ReferenceWidth is set
//   - Reading order assumes a single column and no rotation
//   - A trailing group with fewer than the configured options is dropped
package detection
