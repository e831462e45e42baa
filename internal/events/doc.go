// Package events provides types and interfaces for publishing state changes.
//
// Every mutation of the file metadata sequence and every pipeline state
// transition is published as an Event carrying only the delta, so observers
// (the server-sent events stream, tests) never poll.
//
// The primary components are:
// - Event: a typed notification with a JSON payload
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
// - ChannelHandler: a buffered subscriber for streaming transports
package events
