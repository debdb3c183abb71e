package transport

import "context"

// ChatTarget addresses a chat. ChatID is either a numeric id ("-100123")
// or a public channel username ("@visa_alerts").
type ChatTarget struct {
	ChatID   string
	ThreadID int // forum topic thread id (0 if none)
}

func (t ChatTarget) IsZero() bool { return t.ChatID == "" }

type MessageRef struct {
	ChatID    string
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	Silent         bool
}

// Sender delivers one plain text message of at most TextLimit runes per
// call. Implementations must honor ctx.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
