package bot

import (
	"context"
	"fmt"

	"github.com/marcelsud/bot-gateway/telegram"
)

/* Token registration: any message carrying something shaped like a bot
 * token, usually a forwarded BotFather confirmation, is treated as a
 * request to connect a new instance. The token is probed against the
 * platform before it reaches the manager.
 */

// register validates a candidate token and submits it to the manager. User
// facing failures are reported in chat and never bubble up as handler
// errors.
func (h *approvedHandler) register(ctx context.Context, msg *telegram.Message, token string) error {
	if msg.From == nil {
		return nil
	}

	probe := h.deps.Bots(token)
	me, err := probe.GetMe(ctx)
	if err != nil || me.Username == "" {
		h.logger.Info().Err(err).Msg("token probe failed")
		_, sendErr := h.bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   "Error! Something is wrong with that bot token!",
		})
		return sendErr
	}

	if err := h.deps.Registry.Register(ctx, token, msg.From.ID, me.Username); err != nil {
		h.logger.Warn().Err(err).Str("bot_username", me.Username).Msg("registration failed")
		_, sendErr := h.bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   "Error! The bot may already be registered!",
		})
		return sendErr
	}

	_, err = h.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   fmt.Sprintf("@%s is registered and will be connected within a few minutes!", me.Username),
	})
	if err != nil {
		return fmt.Errorf("sending registration reply: %w", err)
	}

	if h.deps.AdminChatID != 0 {
		_, err := h.bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: h.deps.AdminChatID,
			Text:   fmt.Sprintf("New bot registered: @%s", me.Username),
		})
		if err != nil {
			h.logger.Warn().Err(err).Msg("admin notification failed")
		}
	}
	return nil
}
