package bot

import (
	"context"
	"fmt"
	"slices"

	"github.com/marcelsud/bot-gateway/telegram"
	"github.com/marcelsud/bot-gateway/usersettings"
)

/* Language settings: an inline keyboard toggling the languages a user's
 * collection archives are built from. Edits happen in place on the menu
 * message.
 */

func (h *approvedHandler) settingsMenu(ctx context.Context, msg *telegram.Message) error {
	_, err := h.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   "Settings",
		ReplyMarkup: &telegram.InlineKeyboardMarkup{
			InlineKeyboard: [][]telegram.InlineKeyboardButton{{{
				Text:         "Languages",
				CallbackData: settingsQueryData,
			}}},
		},
	})
	if err != nil {
		return fmt.Errorf("sending settings menu: %w", err)
	}
	return nil
}

// langKeyboard redraws the menu message as the language toggle list.
func (h *approvedHandler) langKeyboard(ctx context.Context, msg *telegram.Message, from telegram.User) error {
	all, err := h.deps.Settings.Langs(ctx)
	if err != nil {
		_, _ = h.bot.SendMessage(ctx, telegram.SendMessageParams{ChatID: msg.Chat.ID, Text: errorText})
		return fmt.Errorf("fetching languages: %w", err)
	}
	allowed := h.deps.Settings.UserOrDefaultLangCodes(ctx, from.ID)

	err = h.bot.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.MessageID,
		Text:        "Languages to search in:",
		ReplyMarkup: langMarkup(all, allowed),
	})
	if err != nil {
		return fmt.Errorf("rendering language keyboard: %w", err)
	}
	return nil
}

// toggleLang flips one language on or off and redraws the keyboard.
func (h *approvedHandler) toggleLang(ctx context.Context, msg *telegram.Message, from telegram.User, code string, enable bool) error {
	current := h.deps.Settings.UserOrDefaultLangCodes(ctx, from.ID)

	var next []string
	if enable {
		next = append(slices.Clone(current), code)
	} else {
		for _, c := range current {
			if c != code {
				next = append(next, c)
			}
		}
		if len(next) == 0 {
			_, err := h.bot.SendMessage(ctx, telegram.SendMessageParams{
				ChatID: msg.Chat.ID,
				Text:   "At least one language must stay enabled.",
			})
			return err
		}
	}

	settings := usersettings.UserSettings{
		UserID:    from.ID,
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Username:  from.Username,
		Source:    h.botUsername(ctx),
	}
	if err := h.deps.Settings.SetAllowedLangs(ctx, settings, next); err != nil {
		_, _ = h.bot.SendMessage(ctx, telegram.SendMessageParams{ChatID: msg.Chat.ID, Text: errorText})
		return fmt.Errorf("updating languages for user %d: %w", from.ID, err)
	}

	return h.langKeyboard(ctx, msg, from)
}

func langMarkup(all []usersettings.Lang, allowed []string) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(all))
	for _, lang := range all {
		on := slices.Contains(allowed, lang.Code)
		label, data := "🔴 "+lang.Label, langQueryData(true, lang.Code)
		if on {
			label, data = "🟢 "+lang.Label, langQueryData(false, lang.Code)
		}
		rows = append(rows, []telegram.InlineKeyboardButton{{Text: label, CallbackData: data}})
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}
