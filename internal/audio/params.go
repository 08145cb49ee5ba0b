// Package audio carries the analysis parameters the dataset was extracted
// with and the WAV plumbing used to cross-check feature files against source
// recordings. No feature extraction happens here.
package audio

import "fmt"

// Params mirrors the analysis configuration of the upstream extraction step.
// The batching core only consumes SampleRate and FrameShiftMS (for the doctor
// duration cross-check); the rest is accepted for interface compatibility.
type Params struct {
	SampleRate    int
	NumMels       int
	MinLevelDB    float64
	FrameShiftMS  float64
	FrameLengthMS float64
	Preemphasis   float64
	RefLevelDB    float64
	NumFreq       int
	Power         float64
}

// DefaultParams returns the LJSpeech-style analysis configuration.
func DefaultParams() Params {
	return Params{
		SampleRate:    22050,
		NumMels:       80,
		MinLevelDB:    -100,
		FrameShiftMS:  12.5,
		FrameLengthMS: 50,
		Preemphasis:   0.97,
		RefLevelDB:    20,
		NumFreq:       1025,
		Power:         1.5,
	}
}

// Validate checks the fields the frame math depends on.
func (p Params) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("audio: sample rate must be positive, got %d", p.SampleRate)
	}

	if p.FrameShiftMS <= 0 {
		return fmt.Errorf("audio: frame shift must be positive, got %v ms", p.FrameShiftMS)
	}

	if p.FrameLengthMS < p.FrameShiftMS {
		return fmt.Errorf("audio: frame length %v ms shorter than frame shift %v ms", p.FrameLengthMS, p.FrameShiftMS)
	}

	return nil
}

// FrameShiftSamples returns the hop size in samples.
func (p Params) FrameShiftSamples() int {
	return int(float64(p.SampleRate) * p.FrameShiftMS / 1000.0)
}

// FrameLengthSamples returns the window size in samples.
func (p Params) FrameLengthSamples() int {
	return int(float64(p.SampleRate) * p.FrameLengthMS / 1000.0)
}

// ExpectedFrames returns the frame count an analysis of numSamples samples
// produces: one frame per hop, plus the frame anchored at the signal start.
func (p Params) ExpectedFrames(numSamples int) int {
	shift := p.FrameShiftSamples()
	if shift <= 0 || numSamples <= 0 {
		return 0
	}

	return numSamples/shift + 1
}
