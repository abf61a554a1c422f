// Package worker owns the backend side of the frontend<->worker channel.
//
// Ownership boundary:
// - per-frame size and trailer checks around protocol.Decode
// - routing decoded requests to the model Handler
// - failure classification, logging and decode metrics
//
// Frames arrive fully buffered; reading them off a socket or pipe belongs to
// the transport.
package worker
