// Package slicer turns scans into individual photo files.
//
// For every scan a Processor runs detection, cuts each accepted region out
// of the full-resolution image (straightening tilted prints when asked to),
// scales, rotates and filters the slice, and writes it under a temporary
// name derived from the source file. RunBatch spreads scans over a bounded
// worker pool; once a run is over, Rename gives every slice its final
// sequential name.
//
// The interactive test and preview modes live in Session. They process one
// scan at a time and wait for the user between scans.
package slicer
