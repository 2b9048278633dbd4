// Package frames captures single still images from a source video.
//
// A step's metadata carries an actionAt offset in milliseconds. ExtractStep
// turns that offset into an HH:MM:SS.mmm seek position, asks an Extractor to
// write one PNG into the job workspace, and verifies the file exists. Steps
// without an offset are skipped rather than failed.
package frames
