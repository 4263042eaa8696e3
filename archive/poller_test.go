package archive_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/bot-gateway/archive"
	"github.com/marcelsud/bot-gateway/archive/mocks"
	"github.com/marcelsud/bot-gateway/telegram"
	tgmocks "github.com/marcelsud/bot-gateway/telegram/mocks"
)

const (
	testChatID    = int64(100)
	testMessageID = int64(200)
)

func newTestPoller(backend *mocks.Backend, bot *tgmocks.BotAPI, recorder *mocks.Recorder) *archive.Poller {
	return archive.NewPoller(backend, bot, recorder, nil, zerolog.Nop()).
		WithInterval(time.Millisecond)
}

func matchText(match func(string) bool) interface{} {
	return mock.MatchedBy(func(p telegram.EditMessageTextParams) bool {
		return p.ChatID == testChatID && p.MessageID == testMessageID && match(p.Text)
	})
}

func TestPollerRun(t *testing.T) {
	ctx := context.Background()

	t.Run("success - inline delivery after progress updates", func(t *testing.T) {
		backend := mocks.NewBackend(t)
		bot := tgmocks.NewBotAPI(t)
		recorder := mocks.NewRecorder(t)

		params := archive.CreateJobParams{
			ObjectID:     7,
			ObjectType:   archive.Sequence,
			FileFormat:   "fb2",
			AllowedLangs: []string{"en"},
		}

		backend.On("CreateJob", mock.Anything, params).
			Return(&archive.Job{ID: "j1", Status: archive.InProgress}, nil)
		backend.On("GetJob", mock.Anything, "j1").
			Return(&archive.Job{ID: "j1", Status: archive.InProgress, StatusDescription: "collecting files"}, nil).Once()
		backend.On("GetJob", mock.Anything, "j1").
			Return(&archive.Job{ID: "j1", Status: archive.Archiving, StatusDescription: "compressing"}, nil).Once()
		backend.On("GetJob", mock.Anything, "j1").
			Return(&archive.Job{
				ID:             "j1",
				Status:         archive.Complete,
				ResultFilename: "books.zip",
				ContentSize:    5 << 20,
			}, nil).Once()
		backend.On("Fetch", mock.Anything, "j1").
			Return(io.NopCloser(strings.NewReader("archive-bytes")), nil)

		bot.On("EditMessageText", mock.Anything, matchText(func(text string) bool {
			return text == "⏳ Preparing the archive..."
		})).Return(nil).Once()
		bot.On("EditMessageText", mock.Anything, matchText(func(text string) bool {
			return strings.HasPrefix(text, "Status:")
		})).Return(nil).Times(2)
		bot.On("SendDocument", mock.Anything, mock.MatchedBy(func(p telegram.SendDocumentParams) bool {
			return p.ChatID == testChatID && p.Filename == "books.zip"
		})).Return(nil)
		bot.On("DeleteMessage", mock.Anything, testChatID, testMessageID).Return(nil)

		recorder.On("RecordJob", archive.JobDeliveredInline).Once()

		err := newTestPoller(backend, bot, recorder).Run(ctx, params, testChatID, testMessageID)
		require.NoError(t, err)
	})

	t.Run("job creation failure is terminal", func(t *testing.T) {
		backend := mocks.NewBackend(t)
		bot := tgmocks.NewBotAPI(t)
		recorder := mocks.NewRecorder(t)

		backend.On("CreateJob", mock.Anything, mock.Anything).
			Return(nil, errors.New("backend down"))
		bot.On("EditMessageText", mock.Anything, matchText(func(text string) bool {
			return strings.HasPrefix(text, "Error!")
		})).Return(nil).Once()
		recorder.On("RecordJob", archive.JobFailed).Once()

		err := newTestPoller(backend, bot, recorder).
			Run(ctx, archive.CreateJobParams{}, testChatID, testMessageID)
		require.Error(t, err)
	})
}

func TestPollerWait(t *testing.T) {
	ctx := context.Background()

	t.Run("oversized artifact is never fetched", func(t *testing.T) {
		backend := mocks.NewBackend(t)
		bot := tgmocks.NewBotAPI(t)
		recorder := mocks.NewRecorder(t)

		backend.On("GetJob", mock.Anything, "j2").
			Return(&archive.Job{
				ID:             "j2",
				Status:         archive.Complete,
				ResultFilename: "huge.zip",
				ContentSize:    25 << 20,
			}, nil).Once()
		backend.On("PublicLink", "j2").Return("https://dl.example.com/api/download/j2")

		bot.On("EditMessageText", mock.Anything, mock.MatchedBy(func(p telegram.EditMessageTextParams) bool {
			return p.ParseMode == "HTML" &&
				strings.Contains(p.Text, "https://dl.example.com/api/download/j2")
		})).Return(nil).Once()

		recorder.On("RecordJob", archive.JobDeliveredLink).Once()

		err := newTestPoller(backend, bot, recorder).Wait(ctx, "j2", testChatID, testMessageID)
		require.NoError(t, err)
		backend.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	})

	t.Run("poll failure is terminal", func(t *testing.T) {
		backend := mocks.NewBackend(t)
		bot := tgmocks.NewBotAPI(t)
		recorder := mocks.NewRecorder(t)

		backend.On("GetJob", mock.Anything, "j3").
			Return(nil, errors.New("status check failed"))
		bot.On("EditMessageText", mock.Anything, matchText(func(text string) bool {
			return strings.HasPrefix(text, "Error!")
		})).Return(nil).Once()
		recorder.On("RecordJob", archive.JobFailed).Once()

		err := newTestPoller(backend, bot, recorder).Wait(ctx, "j3", testChatID, testMessageID)
		require.Error(t, err)
	})

	t.Run("failed job renders the generic error", func(t *testing.T) {
		backend := mocks.NewBackend(t)
		bot := tgmocks.NewBotAPI(t)
		recorder := mocks.NewRecorder(t)

		backend.On("GetJob", mock.Anything, "j4").
			Return(&archive.Job{ID: "j4", Status: archive.Failed}, nil).Once()
		bot.On("EditMessageText", mock.Anything, matchText(func(text string) bool {
			return strings.HasPrefix(text, "Error!")
		})).Return(nil).Once()
		recorder.On("RecordJob", archive.JobFailed).Once()

		err := newTestPoller(backend, bot, recorder).Wait(ctx, "j4", testChatID, testMessageID)
		require.NoError(t, err)
	})

	t.Run("inline delivery failure falls back to the link", func(t *testing.T) {
		backend := mocks.NewBackend(t)
		bot := tgmocks.NewBotAPI(t)
		recorder := mocks.NewRecorder(t)

		backend.On("GetJob", mock.Anything, "j5").
			Return(&archive.Job{
				ID:             "j5",
				Status:         archive.Complete,
				ResultFilename: "books.zip",
				ContentSize:    1 << 20,
			}, nil).Once()
		backend.On("Fetch", mock.Anything, "j5").
			Return(io.NopCloser(strings.NewReader("archive-bytes")), nil)
		backend.On("PublicLink", "j5").Return("https://dl.example.com/api/download/j5")

		bot.On("SendDocument", mock.Anything, mock.Anything).
			Return(errors.New("request entity too large"))
		bot.On("EditMessageText", mock.Anything, mock.MatchedBy(func(p telegram.EditMessageTextParams) bool {
			return strings.Contains(p.Text, "https://dl.example.com/api/download/j5")
		})).Return(nil).Once()

		recorder.On("RecordJob", archive.JobDeliveredLink).Once()

		err := newTestPoller(backend, bot, recorder).Wait(ctx, "j5", testChatID, testMessageID)
		require.NoError(t, err)
		bot.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already finished job is delivered before the first interval", func(t *testing.T) {
		backend := mocks.NewBackend(t)
		bot := tgmocks.NewBotAPI(t)
		recorder := mocks.NewRecorder(t)

		backend.On("GetJob", mock.Anything, "j6").
			Return(&archive.Job{
				ID:             "j6",
				Status:         archive.Complete,
				ResultFilename: "books.zip",
				ContentSize:    1 << 20,
			}, nil).Once()
		backend.On("Fetch", mock.Anything, "j6").
			Return(io.NopCloser(strings.NewReader("archive-bytes")), nil)

		bot.On("SendDocument", mock.Anything, mock.Anything).Return(nil)
		bot.On("DeleteMessage", mock.Anything, testChatID, testMessageID).Return(nil)
		recorder.On("RecordJob", archive.JobDeliveredInline).Once()

		// An hour-long interval: delivery only succeeds if the first status
		// check does not wait for a tick.
		poller := archive.NewPoller(backend, bot, recorder, nil, zerolog.Nop()).
			WithInterval(time.Hour)

		done := make(chan error, 1)
		go func() { done <- poller.Wait(ctx, "j6", testChatID, testMessageID) }()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("delivery waited for the poll interval")
		}
	})

	t.Run("cancelled context stops polling and clears the progress message", func(t *testing.T) {
		backend := mocks.NewBackend(t)
		bot := tgmocks.NewBotAPI(t)
		recorder := mocks.NewRecorder(t)

		bot.On("EditMessageText", mock.Anything, matchText(func(text string) bool {
			return strings.HasPrefix(text, "Error!")
		})).Return(nil).Once()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := newTestPoller(backend, bot, recorder).Wait(cancelled, "j7", testChatID, testMessageID)
		require.ErrorIs(t, err, context.Canceled)
		backend.AssertNotCalled(t, "GetJob", mock.Anything, mock.Anything)
	})
}
