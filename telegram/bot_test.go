package telegram_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/bot-gateway/telegram"
)

// fakeAPI records the last Bot API call and answers with a canned envelope.
type fakeAPI struct {
	server *httptest.Server

	method string
	body   []byte

	response string
}

func newFakeAPI(t *testing.T, response string) *fakeAPI {
	t.Helper()
	f := &fakeAPI{response: response}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		require.Len(t, parts, 2)
		assert.Equal(t, "bot111:aaa", parts[0])
		f.method = parts[1]

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		f.body = body

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(f.response))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) bot() *telegram.Bot {
	return telegram.NewBot("111:aaa", f.server.URL)
}

func TestBotCalls(t *testing.T) {
	ctx := context.Background()

	t.Run("success - sendMessage decodes the sent message", func(t *testing.T) {
		api := newFakeAPI(t, `{"ok": true, "result": {"message_id": 55, "chat": {"id": 10}, "text": "hello"}}`)

		msg, err := api.bot().SendMessage(ctx, telegram.SendMessageParams{ChatID: 10, Text: "hello"})
		require.NoError(t, err)

		assert.Equal(t, "sendMessage", api.method)
		assert.Equal(t, int64(55), msg.MessageID)

		var params map[string]any
		require.NoError(t, json.Unmarshal(api.body, &params))
		assert.Equal(t, float64(10), params["chat_id"])
		assert.Equal(t, "hello", params["text"])
		assert.NotContains(t, params, "parse_mode")
	})

	t.Run("non-ok envelope surfaces as APIError", func(t *testing.T) {
		api := newFakeAPI(t, `{"ok": false, "error_code": 401, "description": "Unauthorized"}`)

		_, err := api.bot().GetMe(ctx)
		require.Error(t, err)

		var apiErr *telegram.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 401, apiErr.Code)
		assert.Equal(t, "Unauthorized", apiErr.Description)
	})

	t.Run("success - getMe identifies the account", func(t *testing.T) {
		api := newFakeAPI(t, `{"ok": true, "result": {"id": 7, "first_name": "Sample", "username": "sample_bot"}}`)

		me, err := api.bot().GetMe(ctx)
		require.NoError(t, err)

		assert.Equal(t, "getMe", api.method)
		assert.Equal(t, int64(7), me.ID)
		assert.Equal(t, "sample_bot", me.Username)
		assert.Empty(t, api.body)
	})

	t.Run("success - setWebhook sends the url", func(t *testing.T) {
		api := newFakeAPI(t, `{"ok": true, "result": true}`)

		err := api.bot().SetWebhook(ctx, "https://gw.example.com/111:aaa/")
		require.NoError(t, err)

		assert.Equal(t, "setWebhook", api.method)
		assert.JSONEq(t, `{"url": "https://gw.example.com/111:aaa/"}`, string(api.body))
	})

	t.Run("success - getWebhookInfo decodes pending counts", func(t *testing.T) {
		api := newFakeAPI(t, `{"ok": true, "result": {"url": "https://gw.example.com/111:aaa/", "pending_update_count": 12, "last_error_message": "connection refused"}}`)

		info, err := api.bot().GetWebhookInfo(ctx)
		require.NoError(t, err)

		assert.Equal(t, 12, info.PendingUpdateCount)
		assert.Equal(t, "connection refused", info.LastErrorMessage)
	})

	t.Run("success - deleteMessage carries both ids", func(t *testing.T) {
		api := newFakeAPI(t, `{"ok": true, "result": true}`)

		require.NoError(t, api.bot().DeleteMessage(ctx, 10, 55))
		assert.Equal(t, "deleteMessage", api.method)
		assert.JSONEq(t, `{"chat_id": 10, "message_id": 55}`, string(api.body))
	})

	t.Run("success - copyMessage carries the source chat", func(t *testing.T) {
		api := newFakeAPI(t, `{"ok": true, "result": true}`)

		require.NoError(t, api.bot().CopyMessage(ctx, 10, -100200, 55))
		assert.Equal(t, "copyMessage", api.method)
		assert.JSONEq(t, `{"chat_id": 10, "from_chat_id": -100200, "message_id": 55}`, string(api.body))
	})
}

func TestBotSendDocument(t *testing.T) {
	t.Run("success - streams a multipart form", func(t *testing.T) {
		var chatID, filename, content string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			chatID = r.FormValue("chat_id")

			file, header, err := r.FormFile("document")
			require.NoError(t, err)
			defer file.Close()
			filename = header.Filename

			data, err := io.ReadAll(file)
			require.NoError(t, err)
			content = string(data)

			w.Write([]byte(`{"ok": true, "result": {}}`))
		}))
		defer server.Close()

		bot := telegram.NewBot("111:aaa", server.URL)
		err := bot.SendDocument(context.Background(), telegram.SendDocumentParams{
			ChatID:   10,
			Filename: "book.fb2",
			Content:  strings.NewReader("<fb2/>"),
		})
		require.NoError(t, err)

		assert.Equal(t, "10", chatID)
		assert.Equal(t, "book.fb2", filename)
		assert.Equal(t, "<fb2/>", content)
	})

	t.Run("upload failure surfaces as APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"ok": false, "error_code": 413, "description": "Request Entity Too Large"}`))
		}))
		defer server.Close()

		bot := telegram.NewBot("111:aaa", server.URL)
		err := bot.SendDocument(context.Background(), telegram.SendDocumentParams{
			ChatID:   10,
			Filename: "big.zip",
			Content:  strings.NewReader("zip"),
		})

		var apiErr *telegram.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 413, apiErr.Code)
	})
}
