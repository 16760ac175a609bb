package voicebot

import (
	"context"
	"errors"
	"sync"

	"github.com/kbukum/voicebrief/component"
	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/resilience"
	"github.com/kbukum/voicebrief/telegram"
)

// Replies sent to the chat.
const (
	TipThanks       = "Thank you for your tip! We've added a 1$ reward."
	TipUnavailable  = "Sorry, we couldn't process your tip at this time."
	NoSummary       = "No summary available."
	BusyMessage     = "the bot is busy, please try again later"
	TimeoutMessage  = "processing took too long"
	InternalMessage = "internal error"
	errorReplyStart = "An error occurred: "
)

// Messenger is the chat side of the bot. *telegram.Client satisfies it.
type Messenger interface {
	FileURL(ctx context.Context, fileID string) (string, error)
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// Bot handles Telegram updates.
type Bot struct {
	cfg       Config
	processor *Processor
	messenger Messenger
	bulkhead  *resilience.Bulkhead
	updates   UpdateLog
	log       *logger.Logger

	// base outlives webhook requests; Stop cancels it once draining gives up.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards stopped against wg.Add racing Stop's wg.Wait.
	mu      sync.Mutex
	stopped bool
}

// ErrStopped is returned by Dispatch once Stop has been called.
var ErrStopped = errors.New("bot is stopped")

var _ component.Component = (*Bot)(nil)

// Option configures a Bot.
type Option func(*Bot)

// WithUpdateLog skips updates whose ID log has already recorded.
func WithUpdateLog(log UpdateLog) Option {
	return func(b *Bot) { b.updates = log }
}

// NewBot creates a Bot.
func NewBot(cfg Config, processor *Processor, messenger Messenger, log *logger.Logger, opts ...Option) *Bot {
	cfg.ApplyDefaults()
	log = log.WithComponent("bot")
	base, cancel := context.WithCancel(context.Background())
	b := &Bot{
		cfg:       cfg,
		processor: processor,
		messenger: messenger,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "updates",
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.QueueTimeout,
			OnReject: func(name string, err error) {
				log.WithError(err).Warn("Update rejected", logger.Fields("bulkhead", name))
			},
		}),
		log:    log,
		base:   base,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dispatch handles update on its own goroutine, detached from the caller's
// context and bounded by the bulkhead and UpdateTimeout. After Stop it
// refuses the update with ErrStopped.
func (b *Bot) Dispatch(update telegram.Update) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		b.log.Warn("Update refused, bot stopped", logger.Fields("update_id", update.UpdateID))
		return ErrStopped
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(b.base, b.cfg.UpdateTimeout)
		defer cancel()
		err := b.bulkhead.Execute(ctx, func() error {
			return b.HandleUpdate(ctx, update)
		})
		if errors.Is(err, resilience.ErrBulkheadFull) || errors.Is(err, resilience.ErrBulkheadTimeout) {
			if chatID, replyTo, ok := origin(update); ok {
				_ = b.reportError(ctx, chatID, replyTo, err)
			}
		}
	}()
	return nil
}

// origin returns the chat and message an update came from.
func origin(update telegram.Update) (chatID, messageID int64, ok bool) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, update.Message.MessageID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID, 0, true
	}
	return 0, 0, false
}

// HandleUpdate processes one update synchronously. Failures are reported to
// the chat and also returned.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if !b.firstDelivery(ctx, update.UpdateID) {
		b.log.Info("Duplicate update skipped", logger.Fields("update_id", update.UpdateID))
		return nil
	}
	switch {
	case update.Message != nil:
		if update.Message.Voice != nil {
			return b.handleVoice(ctx, update.Message)
		}
		b.log.Debug("Ignoring message without voice", logger.Fields(
			logger.FieldChatID, update.Message.Chat.ID, "update_id", update.UpdateID))
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	default:
		b.log.Debug("Ignoring update", logger.Fields("update_id", update.UpdateID))
	}
	return nil
}

// firstDelivery reports whether updateID has not been handled before. An
// unreachable update log lets the update through.
func (b *Bot) firstDelivery(ctx context.Context, updateID int64) bool {
	if b.updates == nil {
		return true
	}
	first, err := b.updates.MarkSeen(ctx, updateID)
	if err != nil {
		b.log.WithError(err).Warn("Update log unavailable", logger.Fields("update_id", updateID))
		return true
	}
	return first
}

func (b *Bot) handleVoice(ctx context.Context, msg *telegram.Message) error {
	chatID := msg.Chat.ID
	log := b.log.WithFields(logger.Fields(logger.FieldChatID, chatID, "message_id", msg.MessageID))
	log.Info("Voice message received", logger.Fields(
		"file_id", msg.Voice.FileID, "duration_s", msg.Voice.Duration, "mime_type", msg.Voice.MimeType))

	fileURL, err := b.messenger.FileURL(ctx, msg.Voice.FileID)
	if err != nil {
		return b.reportError(ctx, chatID, msg.MessageID, err)
	}
	res, err := b.processor.Process(ctx, fileURL)
	if err != nil {
		return b.reportError(ctx, chatID, msg.MessageID, err)
	}

	summary := res.Summary
	if !res.SummaryReady {
		summary = NoSummary
	}
	_, err = b.messenger.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:           chatID,
		Text:             telegram.FormatReply(res.Transcript, summary),
		ParseMode:        telegram.ParseModeMarkdown,
		ReplyToMessageID: msg.MessageID,
		ReplyMarkup:      telegram.TipKeyboard(res.ConversationID),
	})
	if err != nil {
		return b.reportError(ctx, chatID, msg.MessageID, err)
	}
	log.Info("Reply sent", logger.Fields(logger.FieldConversationID, res.ConversationID))
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cq *telegram.CallbackQuery) error {
	if err := b.messenger.AnswerCallbackQuery(ctx, cq.ID); err != nil {
		b.log.WithError(err).Warn("Failed to answer callback query")
	}
	if cq.Message == nil {
		b.log.Debug("Ignoring callback without message", logger.Fields("callback_id", cq.ID))
		return nil
	}
	conversationID, ok := telegram.ParseTipData(cq.Data)
	if !ok {
		b.log.Debug("Ignoring callback", logger.Fields("data", cq.Data))
		return nil
	}
	return b.handleTip(ctx, cq.Message.Chat.ID, conversationID)
}

func (b *Bot) handleTip(ctx context.Context, chatID int64, conversationID string) error {
	if conversationID == "" {
		return b.send(ctx, chatID, 0, TipUnavailable)
	}
	if err := b.processor.Tip(ctx, conversationID, b.cfg.TipAmount); err != nil {
		return b.reportError(ctx, chatID, 0, err)
	}
	return b.send(ctx, chatID, 0, TipThanks)
}

// reportError tells the chat what failed and returns err. The full error is
// logged; the chat only sees UserMessage(err).
func (b *Bot) reportError(ctx context.Context, chatID, replyTo int64, err error) error {
	b.log.WithError(err).Error("Update failed", logger.Fields(logger.FieldChatID, chatID))
	if sendErr := b.send(ctx, chatID, replyTo, errorReplyStart+UserMessage(err)); sendErr != nil {
		b.log.WithError(sendErr).Error("Failed to report error to chat", logger.Fields(logger.FieldChatID, chatID))
	}
	return err
}

// UserMessage describes err for the chat. AppErrors contribute their message
// without the cause chain, which can hold request URLs carrying the bot
// token; anything else gets a generic text.
func UserMessage(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Message
	}
	switch {
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return BusyMessage
	case errors.Is(err, context.DeadlineExceeded):
		return TimeoutMessage
	}
	return InternalMessage
}

func (b *Bot) send(ctx context.Context, chatID, replyTo int64, text string) error {
	// Sent as plain text: error strings are not Markdown-safe.
	_, err := b.messenger.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:           chatID,
		Text:             telegram.Truncate(text),
		ReplyToMessageID: replyTo,
	})
	return err
}

// Name implements component.Component.
func (b *Bot) Name() string { return "bot" }

// Start implements component.Component.
func (b *Bot) Start(_ context.Context) error { return nil }

// Stop waits for in-flight updates until ctx is done, then cancels them.
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.cancel()
		return nil
	case <-ctx.Done():
		b.cancel()
		<-done
		return ctx.Err()
	}
}

// Health reports degraded while every pipeline slot is taken.
func (b *Bot) Health(_ context.Context) component.Health {
	h := component.Health{Name: b.Name(), Status: component.StatusHealthy}
	if b.bulkhead.InUse() >= b.bulkhead.MaxConcurrent() {
		h.Status = component.StatusDegraded
		h.Message = "all pipeline slots in use"
	}
	return h
}
