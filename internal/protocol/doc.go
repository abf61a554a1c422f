// Package protocol owns the worker wire contract and its decoder.
//
// Ownership boundary:
// - preamble validation and command dispatch
// - bounds-checked cursor and length-or-marker reads
// - load and predict payload parsers, nested list decoding
// - content-type driven value decoding
// - the request encoder used by the frontend side and by tests
//
// Decoding is a pure function of one fully buffered frame. It keeps no
// state between calls and is safe to run concurrently on separate frames.
package protocol
