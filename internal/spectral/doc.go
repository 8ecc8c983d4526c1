// Package spectral computes decibel-scaled short-time Fourier transforms.
//
// A transform is pure: it holds no state between calls and the same samples
// always produce the same Matrix. The decibel reference is the peak magnitude
// of the whole matrix, so a quiet passage embedded next to a loud one reads
// lower than the same passage transformed alone.
package spectral
