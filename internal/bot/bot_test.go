package bot

import (
	"context"
	"errors"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/pkg/models"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	acks     int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

type fakeLinks struct {
	byUser map[string]int64
}

func (f *fakeLinks) Link(_ context.Context, userID string, chatID int64) error {
	f.byUser[userID] = chatID
	return nil
}

func (f *fakeLinks) ChatID(_ context.Context, userID string) (int64, bool, error) {
	id, ok := f.byUser[userID]
	return id, ok, nil
}

func (f *fakeLinks) UserID(_ context.Context, chatID int64) (string, bool, error) {
	for u, c := range f.byUser {
		if c == chatID {
			return u, true, nil
		}
	}
	return "", false, nil
}

type fakeReports struct {
	reports map[string]*progress.Report
}

func (f *fakeReports) Report(_ context.Context, userID string) (*progress.Report, error) {
	if r, ok := f.reports[userID]; ok {
		return r, nil
	}
	return nil, progress.ErrNoData
}

func newTestBot(t *testing.T) (*Bot, *fakeSender, *fakeLinks) {
	t.Helper()
	links := &fakeLinks{byUser: make(map[string]int64)}
	reports := &fakeReports{reports: map[string]*progress.Report{
		"u1": {TotalTests: 3, AverageScore: 6.5, StudyStreak: 2, Strengths: []string{"Reading"}},
	}}
	b, err := New("token", links, reports, nil)
	require.NoError(t, err)
	s := &fakeSender{}
	b.api = s
	return b, s, links
}

func command(chatID int64, text, cmd string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(cmd) + 1},
		},
	}}
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("", nil, nil, nil)
	assert.Error(t, err)
}

func TestStartLinksChat(t *testing.T) {
	b, s, links := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command(42, "/start", "start"))
	assert.Contains(t, s.last(t).Text, "/start <your-user-id>")
	assert.Empty(t, links.byUser)

	b.handleUpdate(ctx, command(42, "/start u1", "start"))
	assert.Equal(t, int64(42), links.byUser["u1"])
	msg := s.last(t)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "Linked to u1")
	assert.NotNil(t, msg.ReplyMarkup)
}

func TestProgressCommand(t *testing.T) {
	b, s, links := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command(7, "/progress", "progress"))
	assert.Contains(t, s.last(t).Text, "not linked")

	links.byUser["nobody"] = 7
	b.handleUpdate(ctx, command(7, "/progress", "progress"))
	assert.Contains(t, s.last(t).Text, "No test results yet")

	links.byUser = map[string]int64{"u1": 7}
	b.handleUpdate(ctx, command(7, "/progress", "progress"))
	text := s.last(t).Text
	assert.Contains(t, text, "Tests completed: 3")
	assert.Contains(t, text, "Strengths: Reading")
}

func TestHelpAndUnknown(t *testing.T) {
	b, s, _ := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command(1, "/help", "help"))
	assert.Equal(t, helpText, s.last(t).Text)

	b.handleUpdate(ctx, command(1, "/dance", "dance"))
	assert.Contains(t, s.last(t).Text, "Unknown command")

	b.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}}})
	assert.Contains(t, s.last(t).Text, "/help")
}

func TestCallbackProgress(t *testing.T) {
	b, s, links := newTestBot(t)
	links.byUser["u1"] = 9

	b.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    callbackProgress,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 9}},
	}})
	assert.Equal(t, 1, s.acks)
	assert.Contains(t, s.last(t).Text, "Study streak: 2")
}

func TestSendStreakReminder(t *testing.T) {
	b, s, links := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, b.SendStreakReminder(ctx, "unlinked", 3))
	assert.Empty(t, s.messages)

	links.byUser["u1"] = 5
	require.NoError(t, b.SendStreakReminder(ctx, "u1", 3))
	msg := s.last(t)
	assert.Equal(t, int64(5), msg.ChatID)
	assert.Contains(t, msg.Text, "3-day study streak")
}

func TestResultGraded(t *testing.T) {
	b, s, links := newTestBot(t)
	links.byUser["u1"] = 5

	result := &models.TestResult{ID: "r1", UserID: "u1", TestID: "t1", Score: 6.5, IsPassed: true, TeacherFeedback: "Nice cohesion"}
	require.NoError(t, b.ResultGraded(context.Background(), result, &models.Test{ID: "t1", Title: "Writing Task 2"}))

	text := s.last(t).Text
	assert.Contains(t, text, `"Writing Task 2"`)
	assert.Contains(t, text, "band 6.5 (passed)")
	assert.Contains(t, text, "Feedback: Nice cohesion")
}

type failingLinks struct{ fakeLinks }

func (failingLinks) ChatID(context.Context, string) (int64, bool, error) {
	return 0, false, errors.New("db down")
}

func TestNotifierPropagatesLookupErrors(t *testing.T) {
	b, s, _ := newTestBot(t)
	b.links = &failingLinks{fakeLinks{byUser: map[string]int64{}}}

	assert.Error(t, b.SendStreakReminder(context.Background(), "u1", 1))
	assert.Error(t, b.ResultGraded(context.Background(), &models.TestResult{UserID: "u1"}, nil))
	assert.Empty(t, s.messages)
}
