// Package raster turns a decibel spectrogram into the composite background
// image and derives the per-segment highlighted variants.
//
// Rendering is two steps. A Plotter rasterizes the matrix at roughly the
// requested size; the Renderer then resamples with Catmull-Rom to exactly the
// configured width and height, because every section boundary downstream is a
// pixel column of that exact width.
package raster
