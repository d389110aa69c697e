// Package wisce converts WISCE register scripts between their line based
// text form and a RIFF "WSCR" binary form of "wreg", "rmw " and "dlay"
// chunks.
package wisce
