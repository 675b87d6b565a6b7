// Package broadcast implements the process-wide text hub.
//
// The Hub keeps the latest published text and a set of subscriber channels.
// Publish overwrites the latest text and appends the encoded message to every
// channel's queue, all under one mutex, so every subscriber sees publishes in
// the same order. Queues are unbounded: a message is never dropped for a
// reader that is merely behind. Each Subscriber drains its queue on its own
// goroutine (Run) and interleaves keep-alives; only a failed write or the hub
// ends a channel.
package broadcast
