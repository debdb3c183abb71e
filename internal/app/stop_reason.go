package app

// StopReason is logged when the daemon shuts down.
type StopReason string

const (
	StopSignal     StopReason = "signal"
	StopFatalError StopReason = "fatal_error"
	StopOnceDone   StopReason = "once_done"
)
