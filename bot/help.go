package bot

import (
	"context"
	"fmt"

	"github.com/marcelsud/bot-gateway/telegram"
)

func (h *approvedHandler) help(ctx context.Context, msg *telegram.Message) error {
	name := "there"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}

	text := fmt.Sprintf(
		"Hi, %s!\n\n"+
			"This bot helps you download books.\n\n"+
			"Search language settings: /settings\n\n"+
			"Running your own copy:\n"+
			"1. Create a bot with @BotFather.\n"+
			"2. Forward the confirmation message here.\n"+
			"(It starts with: Done! Congratulations on your new bot.)",
		name,
	)

	_, err := h.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("sending help message: %w", err)
	}
	return nil
}
