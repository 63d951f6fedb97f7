// Package events fans marketplace events out to consumers.
//
// The Dispatcher delivers every published event to each named subscriber's
// GrowableBuffer. Publishing never blocks the coordinator: buffers grow on
// demand and only refuse delivery once closed.
package events
