package raster

import "math"

// Frequency axis scales.
const (
	ScaleLog    = "log"
	ScaleLinear = "linear"
)

// The log axis is a symmetric log with base 2 and a linear region below
// 64 Hz, the convention of the figures this tool reproduces.
const (
	symlogBase      = 2.0
	symlogLinThresh = 64.0
	symlogLinScale  = 1.0
)

var symlogLinScaleAdj = symlogLinScale / (1 - 1/symlogBase)

func symlog(f float64) float64 {
	if f <= symlogLinThresh {
		return f * symlogLinScaleAdj
	}
	return symlogLinThresh * (symlogLinScaleAdj + math.Log(f/symlogLinThresh)/math.Log(symlogBase))
}

func symlogInverse(t float64) float64 {
	limit := symlogLinThresh * symlogLinScaleAdj
	if t <= limit {
		return t / symlogLinScaleAdj
	}
	return symlogLinThresh * math.Pow(symlogBase, t/symlogLinThresh-symlogLinScaleAdj)
}

// rowFrequency returns the frequency displayed at the center of row y of a
// height-row image whose top row is the Nyquist frequency.
func rowFrequency(y, height int, nyquist float64, scale string) float64 {
	frac := 1 - (float64(y)+0.5)/float64(height)
	if scale == ScaleLinear {
		return frac * nyquist
	}
	return symlogInverse(frac * symlog(nyquist))
}
