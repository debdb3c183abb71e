package notifier

import (
	"time"

	"visawatch/internal/transport"
)

// Config controls delivery.
type Config struct {
	RetryMax       int
	RetryDelay     time.Duration
	RatePerSec     int
	SendTimeout    time.Duration
	DisablePreview bool
}

// Delivery describes a Send. On failure it still reports the calls made
// and the chunks that went out before the error.
type Delivery struct {
	// Attempts counts SendText calls across all chunks.
	Attempts int
	Chunks   int
	// Ref points at the last chunk sent.
	Ref transport.MessageRef
}

// HistoryItem is one delivered alert, newest last in Snapshot.
type HistoryItem struct {
	At       time.Time `json:"at"`
	Attempts int       `json:"attempts"`
	Chunks   int       `json:"chunks"`
	Text     string    `json:"text"`
}
