package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcelsud/bot-gateway/archive"
	"github.com/marcelsud/bot-gateway/telegram"
)

/* Book downloads and collection archives. Single files go out immediately,
 * preferring the cached chat copy when the instance's cache mode allows it.
 * Archives are built server side; a detached poller tracks the job and the
 * pipeline stays free for the next update.
 */

// downloadKeyboard replies with one button per format the book exists in.
func (h *approvedHandler) downloadKeyboard(ctx context.Context, msg *telegram.Message, bookID int64) error {
	book, err := h.deps.Library.GetBook(ctx, bookID)
	if err != nil {
		_, _ = h.bot.SendMessage(ctx, telegram.SendMessageParams{ChatID: msg.Chat.ID, Text: errorText})
		return fmt.Errorf("fetching book %d: %w", bookID, err)
	}

	rows := make([][]telegram.InlineKeyboardButton, 0, len(book.AvailableTypes))
	for _, format := range book.AvailableTypes {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         "📥 " + format,
			CallbackData: downloadQueryData(book.ID, format),
		}})
	}

	_, err = h.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:           msg.Chat.ID,
		Text:             "Choose a format:",
		ReplyToMessageID: msg.MessageID,
		ReplyMarkup:      &telegram.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		return fmt.Errorf("sending format keyboard: %w", err)
	}
	return nil
}

// archiveKeyboard replies with the formats a collection archive can be
// built in. Prebuilt zip bundles are filtered out; those are what the
// archive backend produces itself.
func (h *approvedHandler) archiveKeyboard(ctx context.Context, msg *telegram.Message, obj archive.ObjectType, id int64) error {
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	langs := h.deps.Settings.UserOrDefaultLangCodes(ctx, userID)

	formats, err := h.deps.Library.AvailableTypes(ctx, obj.String(), id, langs)
	if err != nil {
		_, _ = h.bot.SendMessage(ctx, telegram.SendMessageParams{ChatID: msg.Chat.ID, Text: errorText})
		return fmt.Errorf("fetching available types for %s %d: %w", obj, id, err)
	}

	var rows [][]telegram.InlineKeyboardButton
	for _, format := range formats {
		if strings.Contains(format, "zip") {
			continue
		}
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         format,
			CallbackData: archiveQueryData(obj, id, format),
		}})
	}

	_, err = h.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:           msg.Chat.ID,
		Text:             "Choose a format:",
		ReplyToMessageID: msg.MessageID,
		ReplyMarkup:      &telegram.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		return fmt.Errorf("sending format keyboard: %w", err)
	}
	return nil
}

// deliverBook sends one book file into the chat, honoring the instance's
// cache mode, and replaces the format keyboard message.
func (h *approvedHandler) deliverBook(ctx context.Context, msg *telegram.Message, bookID int64, format string) error {
	if h.inst.Cache.UsesCachedCopies() {
		delivered, err := h.sendCached(ctx, msg, bookID, format)
		if err != nil {
			h.logger.Warn().Err(err).Int64("book_id", bookID).Msg("cached delivery failed, downloading directly")
		}
		if delivered {
			h.finishDelivery(ctx, msg)
			return nil
		}
	}

	file, err := h.deps.FileCache.DownloadFile(ctx, bookID, format)
	if err != nil {
		_, _ = h.bot.SendMessage(ctx, telegram.SendMessageParams{ChatID: msg.Chat.ID, Text: errorText})
		return fmt.Errorf("downloading book %d: %w", bookID, err)
	}
	if file == nil {
		_, err := h.bot.SendMessage(ctx, telegram.SendMessageParams{ChatID: msg.Chat.ID, Text: errorText})
		return err
	}
	defer file.Content.Close()

	err = h.bot.SendDocument(ctx, telegram.SendDocumentParams{
		ChatID:   msg.Chat.ID,
		Filename: file.Filename,
		Caption:  file.Caption,
		Content:  file.Content,
	})
	if err != nil {
		_, _ = h.bot.SendMessage(ctx, telegram.SendMessageParams{ChatID: msg.Chat.ID, Text: errorText})
		return fmt.Errorf("sending book %d: %w", bookID, err)
	}

	h.finishDelivery(ctx, msg)
	return nil
}

// sendCached copies the previously uploaded file message into the chat.
// Returns false without error when the cache has no copy.
func (h *approvedHandler) sendCached(ctx context.Context, msg *telegram.Message, bookID int64, format string) (bool, error) {
	cached, err := h.deps.FileCache.GetCachedMessage(ctx, bookID, format, h.inst.Cache.CopiesOnRead())
	if err != nil {
		return false, err
	}
	if cached == nil {
		return false, nil
	}

	if err := h.bot.CopyMessage(ctx, msg.Chat.ID, cached.ChatID, cached.MessageID); err != nil {
		return false, fmt.Errorf("copying cached message: %w", err)
	}
	return true, nil
}

func (h *approvedHandler) finishDelivery(ctx context.Context, msg *telegram.Message) {
	if err := h.bot.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID); err != nil {
		h.logger.Debug().Err(err).Msg("keyboard cleanup failed")
	}
	h.donationNotice(ctx, msg.Chat.ID)
}

// startArchive creates an archival job and hands it to a detached poller.
// The pipeline moves on immediately; the poller edits the keyboard message
// in place until the job finishes.
func (h *approvedHandler) startArchive(ctx context.Context, from telegram.User, msg *telegram.Message, obj archive.ObjectType, id int64, format string) error {
	langs := h.deps.Settings.UserOrDefaultLangCodes(ctx, from.ID)
	params := archive.CreateJobParams{
		ObjectID:     id,
		ObjectType:   obj,
		FileFormat:   format,
		AllowedLangs: langs,
	}

	poller := h.newPoller()
	chatID, messageID := msg.Chat.ID, msg.MessageID
	go func() {
		if err := poller.Run(ctx, params, chatID, messageID); err != nil {
			h.logger.Error().Err(err).Int64("object_id", id).Msg("archive job failed")
		}
	}()
	return nil
}

// checkArchive resumes polling an existing job after a manual status
// refresh, typically following a gateway restart.
func (h *approvedHandler) checkArchive(ctx context.Context, msg *telegram.Message, jobID string) error {
	poller := h.newPoller()
	chatID, messageID := msg.Chat.ID, msg.MessageID
	go func() {
		if err := poller.Wait(ctx, jobID, chatID, messageID); err != nil {
			h.logger.Error().Err(err).Str("job_id", jobID).Msg("archive job failed")
		}
	}()
	return nil
}

func (h *approvedHandler) newPoller() *archive.Poller {
	return archive.NewPoller(h.deps.Archive, h.bot, h.deps.Recorder, checkKeyboard, h.logger)
}

func checkKeyboard(jobID string) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{{
			Text:         "Refresh status",
			CallbackData: checkQueryData(jobID),
		}}},
	}
}
