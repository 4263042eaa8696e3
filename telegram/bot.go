package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

/* Thin client for the Telegram Bot API.
 * No third-party Telegram library is used; the gateway needs only a handful
 * of methods and a predictable error surface, so the client is a small
 * net/http wrapper in the spirit of a REST repository.
 */

const defaultAPIRoot = "https://api.telegram.org"

// APIError is a non-ok response from the Bot API.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// BotAPI is the surface handler modules and the supervisor depend on.
// Accept this interface, return the concrete *Bot.
type BotAPI interface {
	SendMessage(ctx context.Context, p SendMessageParams) (*Message, error)
	EditMessageText(ctx context.Context, p EditMessageTextParams) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	SendDocument(ctx context.Context, p SendDocumentParams) error
	CopyMessage(ctx context.Context, toChatID, fromChatID, messageID int64) error
	SetWebhook(ctx context.Context, url string) error
	DeleteWebhook(ctx context.Context) error
	SetMyCommands(ctx context.Context, commands []BotCommand) error
	DeleteMyCommands(ctx context.Context) error
	GetWebhookInfo(ctx context.Context) (*WebhookInfo, error)
	GetMe(ctx context.Context) (*User, error)
}

// Bot is a Bot API client bound to a single bot token.
type Bot struct {
	token   string
	apiRoot string
	httpc   *http.Client
}

// NewBot creates a client for the given token. apiRoot may be empty to use
// the public Bot API endpoint.
func NewBot(token, apiRoot string) *Bot {
	if apiRoot == "" {
		apiRoot = defaultAPIRoot
	}
	return &Bot{
		token:   token,
		apiRoot: apiRoot,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns the bot token the client is bound to.
func (b *Bot) Token() string { return b.token }

// call invokes a Bot API method with a JSON body and decodes the result
// envelope into out (which may be nil).
func (b *Bot) call(ctx context.Context, method string, params, out any) error {
	var body io.Reader
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshaling %s params: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	url := fmt.Sprintf("%s/bot%s/%s", b.apiRoot, b.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	return decodeAPIResponse(resp.Body, method, out)
}

func decodeAPIResponse(r io.Reader, method string, out any) error {
	var envelope apiResponse
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !envelope.OK {
		return &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
	}
	if out != nil && envelope.Result != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}

// SendMessageParams are the fields for sendMessage.
type SendMessageParams struct {
	ChatID           int64                 `json:"chat_id"`
	Text             string                `json:"text"`
	ParseMode        string                `json:"parse_mode,omitempty"`
	ReplyToMessageID int64                 `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage sends a text message and returns the sent message.
func (b *Bot) SendMessage(ctx context.Context, p SendMessageParams) (*Message, error) {
	var msg Message
	if err := b.call(ctx, "sendMessage", p, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageTextParams are the fields for editMessageText.
type EditMessageTextParams struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int64                 `json:"message_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageText replaces the text (and markup) of a previously sent message.
func (b *Bot) EditMessageText(ctx context.Context, p EditMessageTextParams) error {
	return b.call(ctx, "editMessageText", p, nil)
}

// DeleteMessage removes a message from a chat.
func (b *Bot) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	params := struct {
		ChatID    int64 `json:"chat_id"`
		MessageID int64 `json:"message_id"`
	}{chatID, messageID}
	return b.call(ctx, "deleteMessage", params, nil)
}

// CopyMessage copies a message between chats without a forward header.
func (b *Bot) CopyMessage(ctx context.Context, toChatID, fromChatID, messageID int64) error {
	params := struct {
		ChatID     int64 `json:"chat_id"`
		FromChatID int64 `json:"from_chat_id"`
		MessageID  int64 `json:"message_id"`
	}{toChatID, fromChatID, messageID}
	return b.call(ctx, "copyMessage", params, nil)
}

// SendDocumentParams are the fields for sendDocument with an uploaded file.
type SendDocumentParams struct {
	ChatID   int64
	Filename string
	Caption  string
	Content  io.Reader
}

// SendDocument uploads and sends a file as a document. The content is
// streamed through a multipart body, never buffered whole in memory.
func (b *Bot) SendDocument(ctx context.Context, p SendDocumentParams) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeDocumentForm(mw, p)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	url := fmt.Sprintf("%s/bot%s/sendDocument", b.apiRoot, b.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return fmt.Errorf("building sendDocument request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("calling sendDocument: %w", err)
	}
	defer resp.Body.Close()

	return decodeAPIResponse(resp.Body, "sendDocument", nil)
}

func writeDocumentForm(mw *multipart.Writer, p SendDocumentParams) error {
	if err := mw.WriteField("chat_id", fmt.Sprint(p.ChatID)); err != nil {
		return fmt.Errorf("writing chat_id field: %w", err)
	}
	if p.Caption != "" {
		if err := mw.WriteField("caption", p.Caption); err != nil {
			return fmt.Errorf("writing caption field: %w", err)
		}
	}
	part, err := mw.CreateFormFile("document", p.Filename)
	if err != nil {
		return fmt.Errorf("creating document part: %w", err)
	}
	if _, err := io.Copy(part, p.Content); err != nil {
		return fmt.Errorf("streaming document: %w", err)
	}
	return nil
}

// SetWebhook points the bot's webhook at the given URL.
func (b *Bot) SetWebhook(ctx context.Context, url string) error {
	params := struct {
		URL string `json:"url"`
	}{url}
	return b.call(ctx, "setWebhook", params, nil)
}

// DeleteWebhook removes the bot's webhook registration.
func (b *Bot) DeleteWebhook(ctx context.Context) error {
	return b.call(ctx, "deleteWebhook", nil, nil)
}

// SetMyCommands replaces the bot's command menu.
func (b *Bot) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	params := struct {
		Commands []BotCommand `json:"commands"`
	}{commands}
	return b.call(ctx, "setMyCommands", params, nil)
}

// DeleteMyCommands clears the bot's command menu.
func (b *Bot) DeleteMyCommands(ctx context.Context) error {
	return b.call(ctx, "deleteMyCommands", nil, nil)
}

// GetMe identifies the bot account the token belongs to.
func (b *Bot) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := b.call(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetWebhookInfo reports the current webhook registration state.
func (b *Bot) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := b.call(ctx, "getWebhookInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
