// Package imaging provides the raster primitives the slicer is built from.
//
// It wraps github.com/disintegration/imaging for decoding, cropping,
// resizing and rotating, and adds the pieces that library does not carry:
// convex hulls and minimum-area rectangles over detected outlines, a
// four-point perspective transform solved with gonum, outline drawing for
// detection previews, and SampleBackground, which reads the scanner lid color
// from the border of a scan and suggests a white threshold for detection.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Rectangles follow
// image.Rectangle: Min is inclusive, Max is exclusive. Angles are measured in
// degrees with positive values turning clockwise on screen.
//
// # Corner Order
//
// Functions taking or returning four corners use top-left, top-right,
// bottom-right, bottom-left order. OrderCorners normalizes arbitrary input to
// that order.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and never modify their inputs, so they can be called concurrently on the
// same source image.
//
// # Error Handling
//
// Functions return errors for unreadable or empty files, crops that miss the
// image entirely, and quadrilaterals that cannot be mapped onto a rectangle
// (ErrDegenerateQuad).
package imaging
