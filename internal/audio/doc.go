// Package audio is the codec boundary: WAV, FLAC and MP3 decoders behind a
// common Codec interface and an extension registry. Playback lives in the
// playback subpackage so that decoding needs no cgo.
package audio
