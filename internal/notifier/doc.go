// Package notifier delivers alert messages to the configured chat.
//
// Delivery is synchronous: Send returns once the message was accepted by the
// transport or the retry budget is spent. Text longer than one Telegram
// message is split on line boundaries and each chunk has its own budget, so
// a retry never resends a chunk that already went out. Failed attempts are
// retried after a fixed delay (no backoff growth) up to RetryMax times; after
// that Send gives up with ErrGaveUp so the caller can skip the cycle instead
// of stalling.
//
// # Pacing
//
// Attempts are paced by a token bucket so a flapping transport is never
// hammered faster than RatePerSec.
//
// # History
//
// For operator visibility the service keeps a small in-memory history of
// recently delivered messages; the status server lists it under /status.
package notifier
