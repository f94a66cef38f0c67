// Package feed runs the activity feed subscription.
//
// A Supervisor owns one connection attempt at a time. Each attempt dials the feed,
// fetches the eligible servers, sends the auth/filter/join handshake under a fresh
// correlation id and hands every inbound frame to a Dispatcher bound to that attempt.
// Transport events are consumed by a single loop, so frames are handled in arrival
// order and the attempt state needs no locking. When the transport closes for any
// reason the Supervisor waits a fixed delay and starts a new attempt from scratch.
package feed
