// Package stream broadcasts marketplace events to websocket subscribers.
//
// The Hub consumes a dispatcher subscription and fans each event out as a
// JSON frame. Slow clients are dropped rather than allowed to stall the
// broadcast.
package stream
