package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/marcelsud/bot-gateway/archive"
	"github.com/marcelsud/bot-gateway/filecache"
	"github.com/marcelsud/bot-gateway/gateway"
	"github.com/marcelsud/bot-gateway/library"
	"github.com/marcelsud/bot-gateway/registry"
	"github.com/marcelsud/bot-gateway/telegram"
	"github.com/marcelsud/bot-gateway/usersettings"
)

/* Handler trees for bot instances. Approved instances get the full module
 * set (help, download, archives, settings, token registration); everything
 * else runs a minimal awaiting-approval responder.
 *
 * One handler serves one instance and is driven by a single pipeline
 * goroutine, so per-update state needs no locking; only lazily resolved
 * fields do.
 */

const (
	// Activity updates and support notices are deduplicated per user/chat.
	activityCacheSize = 1024
	activityTTL       = 30 * time.Minute
	noticeCacheSize   = 1024
	noticeTTL         = 24 * time.Hour
)

const errorText = "Error! Try again later :("

// Deps are the shared collaborators handler trees are built from. One Deps
// value serves every instance; per-instance state lives in the handlers.
type Deps struct {
	Logger    zerolog.Logger
	Registry  *registry.Client
	Library   *library.Client
	FileCache *filecache.Client
	Archive   *archive.Client
	Settings  usersettings.UseCase
	Users     *usersettings.Client
	Recorder  archive.Recorder
	Bots      gateway.BotFactory

	// Chat notified about newly registered tokens; 0 disables it.
	AdminChatID int64
}

// NewHandlerFactory returns the factory the supervisor uses to build a
// handler tree per instance.
func NewHandlerFactory(deps Deps) gateway.HandlerFactory {
	return func(botAPI telegram.BotAPI, inst registry.InstanceConfig) (gateway.Handler, []telegram.BotCommand) {
		if inst.Status != registry.Approved {
			return &pendingHandler{bot: botAPI}, nil
		}
		return newApprovedHandler(deps, botAPI, inst), approvedCommands()
	}
}

func approvedCommands() []telegram.BotCommand {
	return []telegram.BotCommand{
		{Command: "help", Description: "How to use the bot"},
		{Command: "settings", Description: "Language settings"},
	}
}

// pendingHandler answers every message with the awaiting-approval notice.
type pendingHandler struct {
	bot telegram.BotAPI
}

func (p *pendingHandler) Handle(ctx context.Context, update *telegram.Update) error {
	if update.Message == nil {
		return nil
	}
	_, err := p.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "The bot is registered but not yet approved by an administrator. Approval takes about 12 hours.",
	})
	return err
}

// approvedHandler dispatches updates for one approved instance.
type approvedHandler struct {
	deps Deps
	bot  telegram.BotAPI
	inst registry.InstanceConfig

	logger zerolog.Logger

	mu       sync.Mutex
	username string

	activity *expirable.LRU[int64, struct{}]
	notices  *expirable.LRU[int64, struct{}]
}

func newApprovedHandler(deps Deps, botAPI telegram.BotAPI, inst registry.InstanceConfig) *approvedHandler {
	return &approvedHandler{
		deps:     deps,
		bot:      botAPI,
		inst:     inst,
		logger:   deps.Logger.With().Int64("bot_id", inst.ID).Logger(),
		activity: expirable.NewLRU[int64, struct{}](activityCacheSize, nil, activityTTL),
		notices:  expirable.NewLRU[int64, struct{}](noticeCacheSize, nil, noticeTTL),
	}
}

// Handle routes one update to its module.
func (h *approvedHandler) Handle(ctx context.Context, update *telegram.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return h.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (h *approvedHandler) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.From != nil {
		h.trackActivity(ctx, *msg.From)
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	if token, ok := extractToken(text); ok {
		return h.register(ctx, msg, token)
	}

	word := commandWord(text)
	switch {
	case word == "/start" || word == "/help":
		return h.help(ctx, msg)
	case word == "/settings":
		return h.settingsMenu(ctx, msg)
	default:
	}

	if bookID, ok := parseDownloadCommand(word); ok {
		return h.downloadKeyboard(ctx, msg, bookID)
	}
	if obj, id, ok := parseArchiveCommand(word); ok {
		return h.archiveKeyboard(ctx, msg, obj, id)
	}

	return nil
}

func (h *approvedHandler) handleCallback(ctx context.Context, cq *telegram.CallbackQuery) error {
	h.trackActivity(ctx, cq.From)

	if cq.Message == nil {
		// The progress message is gone; nothing to edit or deliver into.
		_, err := h.bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: cq.From.ID,
			Text:   errorText,
		})
		return err
	}
	msg := cq.Message

	if bookID, format, ok := parseDownloadQuery(cq.Data); ok {
		return h.deliverBook(ctx, msg, bookID, format)
	}
	if obj, id, format, ok := parseArchiveQuery(cq.Data); ok {
		return h.startArchive(ctx, cq.From, msg, obj, id, format)
	}
	if jobID, ok := parseCheckQuery(cq.Data); ok {
		return h.checkArchive(ctx, msg, jobID)
	}
	if cq.Data == settingsQueryData {
		return h.langKeyboard(ctx, msg, cq.From)
	}
	if code, enable, ok := parseLangQuery(cq.Data); ok {
		return h.toggleLang(ctx, msg, cq.From, code, enable)
	}

	return nil
}

// botUsername resolves and caches the instance's own username. Used as the
// settings source tag and safe to call from poller goroutines.
func (h *approvedHandler) botUsername(ctx context.Context) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.username != "" {
		return h.username
	}
	me, err := h.bot.GetMe(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("resolving bot username failed")
		return ""
	}
	h.username = me.Username
	return h.username
}

// trackActivity records the user interaction, creating the settings record
// first when the settings service has never seen this user.
func (h *approvedHandler) trackActivity(ctx context.Context, user telegram.User) {
	if _, ok := h.activity.Get(user.ID); ok {
		return
	}

	err := h.deps.Users.UpdateUserActivity(ctx, user.ID)
	if err != nil {
		langs := h.deps.Settings.UserOrDefaultLangCodes(ctx, user.ID)
		settings := usersettings.UserSettings{
			UserID:    user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Username:  user.Username,
			Source:    h.botUsername(ctx),
		}
		if createErr := h.deps.Settings.SetAllowedLangs(ctx, settings, langs); createErr == nil {
			err = h.deps.Users.UpdateUserActivity(ctx, user.ID)
		}
	}

	if err != nil {
		h.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("activity update failed")
		return
	}
	h.activity.Add(user.ID, struct{}{})
}

// donationNotice shows the support message at most once per chat per TTL
// window, and only when the settings service says one is due.
func (h *approvedHandler) donationNotice(ctx context.Context, chatID int64) {
	if _, ok := h.notices.Get(chatID); ok {
		return
	}

	due, err := h.deps.Users.IsDonationNoticeDue(ctx, chatID)
	if err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("donation notice check failed")
		return
	}
	h.notices.Add(chatID, struct{}{})
	if !due {
		return
	}

	if err := h.deps.Users.MarkDonationNoticeSent(ctx, chatID); err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("marking donation notice failed")
		return
	}

	_, err = h.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: chatID,
		Text: "This bot runs on donations from its users.\n" +
			"Keeping it online costs real server money, so any contribution helps a lot.\n\n" +
			"Thank you!",
	})
	if err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("donation notice send failed")
	}
}
