package voicebot_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/voicebrief/audio"
	"github.com/kbukum/voicebrief/component"
	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/httpclient"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/resilience"
	storagetest "github.com/kbukum/voicebrief/storage/testutil"
	"github.com/kbukum/voicebrief/summarize"
	"github.com/kbukum/voicebrief/summarize/marketrouter"
	"github.com/kbukum/voicebrief/telegram"
	"github.com/kbukum/voicebrief/transcription"
	"github.com/kbukum/voicebrief/transcription/testutil"
	"github.com/kbukum/voicebrief/voicebot"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

type fakeMessenger struct {
	fileURL string
	fileErr error

	mu       sync.Mutex
	sent     []telegram.SendMessageRequest
	answered []string
}

func (m *fakeMessenger) FileURL(_ context.Context, _ string) (string, error) {
	return m.fileURL, m.fileErr
}

func (m *fakeMessenger) SendMessage(_ context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	return &telegram.Message{MessageID: int64(len(m.sent)), Chat: telegram.Chat{ID: req.ChatID}}, nil
}

func (m *fakeMessenger) AnswerCallbackQuery(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, id)
	return nil
}

func (m *fakeMessenger) messages() []telegram.SendMessageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]telegram.SendMessageRequest(nil), m.sent...)
}

type env struct {
	stage     *storagetest.Stage
	provider  *testutil.Provider
	messenger *fakeMessenger
	rewards   *[]string
	bot       *voicebot.Bot
	processor *voicebot.Processor
}

// newEnv wires the real pipeline against in-memory storage, a scripted
// transcription provider and a fake marketplace.
func newEnv(t *testing.T, statuses ...transcription.JobStatus) *env {
	t.Helper()
	log := logger.NewNop()

	var mu sync.Mutex
	rewards := []string{}
	market := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/instances":
			_, _ = w.Write([]byte(`{"id":"conv-123"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/chat/completions/conv-123":
			_, _ = w.Write([]byte(`[{"response":{"choices":[{"message":{"content":"Greeting."}}]}}]`))
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/report-reward"):
			mu.Lock()
			rewards = append(rewards, r.URL.Path)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(market.Close)

	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OggS-fake-audio"))
	}))
	t.Cleanup(files.Close)

	stage := storagetest.NewStage()
	provider := &testutil.Provider{Statuses: statuses, TranscriptURI: files.URL + "/t.json", FailureReason: "bad audio"}
	poll := transcription.DefaultPollConfig()
	poll.Sleep = noSleep
	poll.MaxAttempts = 5
	runner := transcription.NewRunner(provider, &testutil.Fetcher{Body: testutil.TranscriptJSON("hello world")}, poll, log, nil)

	dl, err := httpclient.New(httpclient.Config{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	transcriber := audio.NewTranscriber(audio.Config{}, stage, runner, dl, log, nil)

	mr, err := marketrouter.New(marketrouter.Config{BaseURL: market.URL, APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	sumCfg := summarize.DefaultConfig()
	sumCfg.Poll.Sleep = noSleep
	summarizer := summarize.NewSummarizer(mr, sumCfg, log, nil)

	processor := voicebot.NewProcessor(transcriber, summarizer, log, nil)
	messenger := &fakeMessenger{fileURL: files.URL + "/voice/file_0.oga"}
	return &env{
		stage:     stage,
		provider:  provider,
		messenger: messenger,
		rewards:   &rewards,
		bot:       voicebot.NewBot(voicebot.Config{}, processor, messenger, log),
		processor: processor,
	}
}

func voiceUpdate() telegram.Update {
	return telegram.Update{UpdateID: 1, Message: &telegram.Message{
		MessageID: 77,
		Chat:      telegram.Chat{ID: 42},
		Voice:     &telegram.Voice{FileID: "voice-1", Duration: 3, MimeType: "audio/ogg"},
	}}
}

func TestProcess_EndToEnd(t *testing.T) {
	e := newEnv(t, transcription.StatusInProgress, transcription.StatusCompleted)

	res, err := e.processor.Process(context.Background(), e.messenger.fileURL)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Transcript != "hello world" || res.Summary != "Greeting." || !res.SummaryReady {
		t.Errorf("unexpected result %+v", res)
	}
	if res.ConversationID == "" {
		t.Error("expected a conversation id")
	}
	if e.stage.Calls("Delete") != 1 {
		t.Errorf("expected staged audio deleted once, got %d", e.stage.Calls("Delete"))
	}
}

func TestHandleUpdate_Voice(t *testing.T) {
	e := newEnv(t, transcription.StatusCompleted)

	if err := e.bot.HandleUpdate(context.Background(), voiceUpdate()); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	sent := e.messenger.messages()
	if len(sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(sent))
	}
	reply := sent[0]
	if reply.ChatID != 42 || reply.ReplyToMessageID != 77 || reply.ParseMode != telegram.ParseModeMarkdown {
		t.Errorf("unexpected reply envelope %+v", reply)
	}
	if reply.Text != telegram.FormatReply("hello world", "Greeting.") {
		t.Errorf("unexpected reply text %q", reply.Text)
	}
	if reply.ReplyMarkup == nil || reply.ReplyMarkup.InlineKeyboard[0][0].CallbackData != "tip:conv-123" {
		t.Errorf("unexpected tip button %+v", reply.ReplyMarkup)
	}
}

func TestHandleUpdate_JobFailureIsReported(t *testing.T) {
	e := newEnv(t, transcription.StatusFailed)

	err := e.bot.HandleUpdate(context.Background(), voiceUpdate())
	if !apperrors.HasCode(err, apperrors.ErrCodeJobFailed) {
		t.Fatalf("expected JOB_FAILED, got %v", err)
	}
	sent := e.messenger.messages()
	if len(sent) != 1 || !strings.HasPrefix(sent[0].Text, "An error occurred: ") {
		t.Fatalf("expected an error reply, got %+v", sent)
	}
	if sent[0].ReplyToMessageID != 77 {
		t.Errorf("error reply should answer the voice message, got %d", sent[0].ReplyToMessageID)
	}
	if e.stage.Calls("Delete") != 1 {
		t.Errorf("expected staged audio deleted once, got %d", e.stage.Calls("Delete"))
	}
}

func TestHandleUpdate_FileURLFailure(t *testing.T) {
	e := newEnv(t, transcription.StatusCompleted)
	e.messenger.fileErr = apperrors.ProviderProtocol("telegram", "failed to get file url")

	if err := e.bot.HandleUpdate(context.Background(), voiceUpdate()); err == nil {
		t.Fatal("expected error")
	}
	if e.stage.Calls("Upload") != 0 {
		t.Error("nothing should be staged")
	}
	if len(e.messenger.messages()) != 1 {
		t.Error("expected an error reply")
	}
}

func TestHandleUpdate_Tip(t *testing.T) {
	e := newEnv(t)
	update := telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:      "cb-1",
		Data:    "tip:conv-123",
		Message: &telegram.Message{MessageID: 5, Chat: telegram.Chat{ID: 42}},
	}}

	for i := 0; i < 2; i++ {
		if err := e.bot.HandleUpdate(context.Background(), update); err != nil {
			t.Fatalf("HandleUpdate: %v", err)
		}
	}
	if len(*e.rewards) != 2 {
		t.Errorf("expected 2 reward reports, got %d", len(*e.rewards))
	}
	sent := e.messenger.messages()
	if len(sent) != 2 || sent[0].Text != voicebot.TipThanks {
		t.Errorf("unexpected replies %+v", sent)
	}
	if len(e.messenger.answered) != 2 {
		t.Errorf("expected callbacks answered, got %v", e.messenger.answered)
	}
}

func TestHandleUpdate_TipWithoutID(t *testing.T) {
	e := newEnv(t)
	update := telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:      "cb-2",
		Data:    "tip:",
		Message: &telegram.Message{Chat: telegram.Chat{ID: 42}},
	}}

	if err := e.bot.HandleUpdate(context.Background(), update); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	sent := e.messenger.messages()
	if len(sent) != 1 || sent[0].Text != voicebot.TipUnavailable {
		t.Errorf("unexpected replies %+v", sent)
	}
	if len(*e.rewards) != 0 {
		t.Error("no reward should be reported")
	}
}

func TestHandleUpdate_IgnoresOtherUpdates(t *testing.T) {
	e := newEnv(t)
	updates := []telegram.Update{
		{Message: &telegram.Message{Chat: telegram.Chat{ID: 1}, Text: "hi"}},
		{CallbackQuery: &telegram.CallbackQuery{ID: "x", Data: "other", Message: &telegram.Message{}}},
		{},
	}
	for _, u := range updates {
		if err := e.bot.HandleUpdate(context.Background(), u); err != nil {
			t.Errorf("HandleUpdate: %v", err)
		}
	}
	if len(e.messenger.messages()) != 0 {
		t.Error("no replies expected")
	}
}

func TestDispatch_StopDrains(t *testing.T) {
	e := newEnv(t, transcription.StatusCompleted)

	if err := e.bot.Dispatch(voiceUpdate()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.bot.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(e.messenger.messages()) != 1 {
		t.Errorf("expected the dispatched update to finish, got %d replies", len(e.messenger.messages()))
	}
}

func TestDispatch_RefusedAfterStop(t *testing.T) {
	e := newEnv(t, transcription.StatusCompleted)
	if err := e.bot.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := e.bot.Dispatch(voiceUpdate()); !errors.Is(err, voicebot.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if len(e.messenger.messages()) != 0 || e.stage.Calls("Upload") != 0 {
		t.Error("a refused update must not be processed")
	}
}

func TestBot_Health(t *testing.T) {
	e := newEnv(t)
	if h := e.bot.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}
}


type failingUpdateLog struct{}

func (failingUpdateLog) MarkSeen(context.Context, int64) (bool, error) {
	return false, apperrors.ExternalServiceError("redis", context.DeadlineExceeded)
}

func TestHandleUpdate_SkipsRedelivery(t *testing.T) {
	e := newEnv(t, transcription.StatusCompleted, transcription.StatusCompleted)
	bot := voicebot.NewBot(voicebot.Config{}, e.processor, e.messenger, logger.NewNop(),
		voicebot.WithUpdateLog(voicebot.NewMemoryUpdateLog(time.Hour)))

	for i := 0; i < 2; i++ {
		if err := bot.HandleUpdate(context.Background(), voiceUpdate()); err != nil {
			t.Fatalf("HandleUpdate #%d: %v", i, err)
		}
	}
	if got := len(e.messenger.messages()); got != 1 {
		t.Errorf("expected 1 reply for a redelivered update, got %d", got)
	}
	if e.stage.Calls("Upload") != 1 {
		t.Errorf("expected audio staged once, got %d", e.stage.Calls("Upload"))
	}
}

func TestHandleUpdate_UpdateLogFailureLetsUpdateThrough(t *testing.T) {
	e := newEnv(t, transcription.StatusCompleted)
	bot := voicebot.NewBot(voicebot.Config{}, e.processor, e.messenger, logger.NewNop(),
		voicebot.WithUpdateLog(failingUpdateLog{}))

	if err := bot.HandleUpdate(context.Background(), voiceUpdate()); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if got := len(e.messenger.messages()); got != 1 {
		t.Errorf("expected 1 reply, got %d", got)
	}
}

func TestHandleUpdate_ErrorReplyHidesFileURL(t *testing.T) {
	e := newEnv(t, transcription.StatusCompleted)
	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	closed.Close()
	e.messenger.fileURL = closed.URL + "/file/bot123456:SECRET-TOKEN/voice/file_0.oga"

	err := e.bot.HandleUpdate(context.Background(), voiceUpdate())
	if !apperrors.HasCode(err, apperrors.ErrCodeNetwork) {
		t.Fatalf("expected NETWORK_ERROR, got %v", err)
	}
	sent := e.messenger.messages()
	if len(sent) != 1 {
		t.Fatalf("expected an error reply, got %d", len(sent))
	}
	if strings.Contains(sent[0].Text, "SECRET-TOKEN") || strings.Contains(sent[0].Text, closed.URL) {
		t.Errorf("error reply exposes the file URL: %q", sent[0].Text)
	}
	if !strings.HasPrefix(sent[0].Text, "An error occurred: ") {
		t.Errorf("unexpected reply %q", sent[0].Text)
	}
	if strings.Contains(err.Error(), "SECRET-TOKEN") {
		t.Errorf("logged error exposes the file URL: %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"app error drops cause", apperrors.Network("download", errors.New("GET http://x/bot1:T/f")), "download failed"},
		{"bulkhead", resilience.ErrBulkheadFull, voicebot.BusyMessage},
		{"deadline", context.DeadlineExceeded, voicebot.TimeoutMessage},
		{"other", errors.New("bot1:T"), voicebot.InternalMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := voicebot.UserMessage(tt.err)
			if strings.Contains(got, "bot1:T") {
				t.Errorf("message leaks cause: %q", got)
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
