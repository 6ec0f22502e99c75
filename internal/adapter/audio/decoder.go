package audio

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/chaitanyak175/attack-capital/internal/domain"
)

// Decoder converts uploaded payload bytes into a mono waveform at the target
// sample rate with samples in [-1, 1]. It is stateless and safe for
// concurrent use.
type Decoder struct {
	targetRate int
}

// NewDecoder creates a Decoder producing waveforms at targetRate Hz.
func NewDecoder(targetRate int) *Decoder {
	if targetRate <= 0 {
		targetRate = domain.TargetSampleRate
	}
	return &Decoder{targetRate: targetRate}
}

// TargetRate returns the output sample rate in Hz.
func (d *Decoder) TargetRate() int { return d.targetRate }

// DecodeContainer interprets raw as a WAV container, downmixes to mono and
// resamples to the target rate. Malformed or non-WAV payloads return a
// *domain.DecodeError.
func (d *Decoder) DecodeContainer(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, domain.NewDecodeError("empty payload", nil)
	}

	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		return nil, domain.NewDecodeError("not a valid WAV file", nil)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, domain.NewDecodeError("unreadable WAV data", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, domain.NewDecodeError("WAV file contains no samples", nil)
	}

	numChans := buf.Format.NumChannels
	if numChans <= 0 {
		numChans = 1
	}
	srcRate := buf.Format.SampleRate
	if srcRate <= 0 {
		return nil, domain.NewDecodeError("WAV header reports no sample rate", nil)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	// Downmix to mono by averaging channels, normalize to [-1, 1].
	numFrames := len(buf.Data) / numChans
	mono := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		var sum float64
		for c := 0; c < numChans; c++ {
			sum += float64(buf.Data[i*numChans+c])
		}
		mono[i] = sum / float64(numChans) / scale
	}

	if srcRate != d.targetRate {
		mono, err = d.resample(mono, srcRate)
		if err != nil {
			return nil, domain.NewDecodeError("resampling failed", err)
		}
	}

	out := make([]float32, len(mono))
	for i, s := range mono {
		out[i] = clampSample(s)
	}
	return out, nil
}

// DecodeRawPCM interprets raw as signed 16-bit little-endian PCM already at
// the target rate. Each sample is divided by 32768 to reach [-1, 1]. A
// payload with an odd byte count returns a *domain.DecodeError.
func (d *Decoder) DecodeRawPCM(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, domain.NewDecodeError("empty payload", nil)
	}
	if len(raw)%2 != 0 {
		return nil, domain.NewDecodeError("raw PCM payload has odd byte count", nil)
	}

	out := make([]float32, len(raw)/2)
	for i := range out {
		s := int16(raw[i*2]) | int16(raw[i*2+1])<<8
		out[i] = float32(s) / 32768.0
	}
	return out, nil
}

// resample converts mono float samples from srcRate to the target rate.
func (d *Decoder) resample(mono []float64, srcRate int) ([]float64, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(d.targetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := rs.Process(mono)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return out, nil
}

func clampSample(s float64) float32 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return float32(s)
}
