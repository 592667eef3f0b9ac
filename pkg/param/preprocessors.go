package param

import "github.com/dspforge/rtengine/pkg/dsp/gain"

// ClipPreprocessor clamps raw input to [0, 1] before normalization —
// the simplest codomain mapping named in §3.
func ClipPreprocessor(raw float64) float64 {
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}

// DbToLinearPreprocessor maps a raw dB value to linear amplitude,
// grounded on pkg/dsp/gain.DbToLinear — used for parameters whose plain
// domain is linear gain but whose external control surface (a CV route,
// a fader) presents dB.
func DbToLinearPreprocessor(rawDb float64) float64 {
	return gain.DbToLinear(rawDb)
}
