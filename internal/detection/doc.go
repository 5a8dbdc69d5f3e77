// Package detection finds the individual photographs on a flatbed scan.
//
// A scan of several loose prints is mostly scanner-lid white with darker
// rectangles on it. Detection separates the two and reports where each
// rectangle is, without touching the full-resolution pixels.
//
// # Pipeline
//
//  1. Segment: downscale to a working copy (900px wide by default, never
//     upscaled), convert to luminance, blur with a fixed 5x5 Gaussian and
//     apply an inverse threshold. The result is a two-valued mask.
//  2. FindContours: trace the outer boundary of every 8-connected foreground
//     component. Holes are filled first so nothing nested inside a photo is
//     reported.
//  3. Classify: compare each contour's bounding-box area, as a percentage of
//     the working copy, against an exclusive size window.
//
// Detect runs all three and counts accepted and rejected regions. It holds
// no state between calls.
//
// # Coordinate System
//
// All coordinates in this package are working-copy pixels. Mask.ScaleX and
// Mask.ScaleY convert them back to the source image.
//
// # Tuning
//
// WhiteThreshold should sit just below the scanner's natural white: too high
// and lid shadows merge neighbouring photos, too low and pale skies break a
// photo apart. Annotate renders accepted and rejected outlines in different
// colors to make that visible.
package detection
