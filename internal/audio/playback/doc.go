// Package playback plays decoded waveforms on the default output device
// through oto. It is kept apart from the codecs so that packages which only
// decode audio build without cgo. Build with the nocgo tag to get a stub
// whose NewPlayer returns ErrUnavailable.
package playback
