// Package resample converts decoded input clips to the engine sample rate.
//
// Conversion is rational (up/down from the reduced integer rates) with a
// polyphase Kaiser-windowed sinc filter. Quality modes trade filter length
// for stopband attenuation:
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
package resample
