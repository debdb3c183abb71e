package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"

	"visawatch/internal/transport"
	logx "visawatch/pkg/logx"
)

type Config struct {
	Token string
	// Offline skips the getMe handshake in tele.NewBot.
	Offline bool
	// Timeout bounds each Bot API request.
	Timeout time.Duration
	// URL overrides the Bot API endpoint. Empty means api.telegram.org.
	URL string
}

// Adapter is a send-only Telegram transport. It never polls for updates.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

var _ transport.Sender = (*Adapter)(nil)

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.URL,
		Offline: cfg.Offline,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, bot: b}
	if b.Me != nil {
		log.Info("telegram bot ready", logx.String("username", b.Me.Username))
	}
	return a, nil
}

// recipient lets the chat id be either numeric or an "@channel" username.
type recipient string

func (r recipient) Recipient() string { return string(r) }

func chatRecipient(chatID string) tele.Recipient {
	id := strings.TrimSpace(chatID)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return tele.ChatID(n)
	}
	return recipient(id)
}

// SendText sends text as one message. Callers split long text with
// transport.SplitText first; anything over transport.TextLimit is rejected.
func (a *Adapter) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	if to.IsZero() {
		return transport.MessageRef{}, errors.New("telegram: empty chat id")
	}
	if n := utf8.RuneCountInString(text); n > transport.TextLimit {
		return transport.MessageRef{}, fmt.Errorf("%w: %d runes", transport.ErrTextTooLong, n)
	}
	if err := ctx.Err(); err != nil {
		return transport.MessageRef{}, err
	}
	if opt == nil {
		opt = &transport.SendOptions{}
	}

	msg, err := a.bot.Send(chatRecipient(to.ChatID), text, &tele.SendOptions{
		ParseMode:             tele.ParseMode(opt.ParseMode),
		DisableWebPagePreview: opt.DisablePreview,
		DisableNotification:   opt.Silent,
		ThreadID:              to.ThreadID,
	})
	if err != nil {
		return transport.MessageRef{}, err
	}
	ref := transport.MessageRef{ChatID: to.ChatID}
	if msg != nil {
		ref.MessageID = msg.ID
	}
	a.log.Debug("telegram message sent", logx.String("chat_id", to.ChatID), logx.Int("message_id", ref.MessageID))
	return ref, nil
}
