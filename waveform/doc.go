// Package waveform models haptic waveform banks: named waveforms made of
// PWLE sections or signed 8-bit PCM blocks.
//
// Banks are stored as a RIFF form of type "HAPT" holding "wave", "pwle" and
// "pcm " chunks. They can also be built from a JSON description (LoadJSON),
// a PWLE string (ParsePWLE) or imported from WAV and AIFF audio, which is
// down-mixed to mono and rounded to 8 bits.
package waveform
