package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/marcelsud/bot-gateway/telegram"
)

/* Poller drives one archival job to completion: create, poll on a fixed
 * interval rendering progress into a single chat message, deliver the
 * artifact inline or fall back to the public link.
 *
 * Each invocation owns exactly one job id; pollers for different users run
 * fully in parallel and share nothing mutable.
 */

const (
	defaultPollInterval = 15 * time.Second

	// Artifacts above this size are never fetched; the user gets the
	// time-limited link instead.
	inlineSizeLimit = 20 << 20
)

// The user never sees backend detail, only this.
const genericErrorText = "Error! Try again later :("

// Backend is the slice of the archival client the poller uses.
type Backend interface {
	CreateJob(ctx context.Context, params CreateJobParams) (*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	PublicLink(id string) string
	Fetch(ctx context.Context, id string) (io.ReadCloser, error)
}

// Messenger is the slice of the bot transport the poller renders through.
type Messenger interface {
	EditMessageText(ctx context.Context, p telegram.EditMessageTextParams) error
	SendDocument(ctx context.Context, p telegram.SendDocumentParams) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

// Recorder counts terminal job results for the metrics exporter.
type Recorder interface {
	RecordJob(result string)
}

// Terminal results recorded per job.
const (
	JobDeliveredInline = "delivered_inline"
	JobDeliveredLink   = "delivered_link"
	JobFailed          = "failed"
)

// KeyboardFunc renders the "refresh status" markup for a job's progress
// message; nil means no markup.
type KeyboardFunc func(jobID string) *telegram.InlineKeyboardMarkup

// Poller runs the long-poll completion protocol.
type Poller struct {
	backend  Backend
	bot      Messenger
	recorder Recorder
	logger   zerolog.Logger

	keyboard KeyboardFunc
	interval time.Duration
	now      func() time.Time
}

// NewPoller creates a poller over the given backend and bot transport.
func NewPoller(backend Backend, bot Messenger, recorder Recorder, keyboard KeyboardFunc, logger zerolog.Logger) *Poller {
	return &Poller{
		backend:  backend,
		bot:      bot,
		recorder: recorder,
		logger:   logger,
		keyboard: keyboard,
		interval: defaultPollInterval,
		now:      time.Now,
	}
}

// WithInterval overrides the poll interval; used in tests.
func (p *Poller) WithInterval(d time.Duration) *Poller {
	p.interval = d
	return p
}

// Run creates a job and polls it to a terminal state, rendering into the
// given progress message. Creation failure is terminal and reported to the
// user immediately.
func (p *Poller) Run(ctx context.Context, params CreateJobParams, chatID, messageID int64) error {
	job, err := p.backend.CreateJob(ctx, params)
	if err != nil {
		p.logger.Error().Err(err).Msg("job creation failed")
		p.renderError(ctx, chatID, messageID)
		p.recorder.RecordJob(JobFailed)
		return fmt.Errorf("creating archival job: %w", err)
	}

	if err := p.bot.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        "⏳ Preparing the archive...",
		ReplyMarkup: p.markup(job.ID),
	}); err != nil {
		p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("progress render failed")
	}

	return p.Wait(ctx, job.ID, chatID, messageID)
}

// Wait polls an existing job until it reaches a terminal state, then
// delivers the result. It stops at the first terminal observation.
func (p *Poller) Wait(ctx context.Context, jobID string, chatID, messageID int64) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// The first status check runs right away; jobs that finish within one
	// interval are delivered without the extra wait.
	var job *Job
	for job == nil {
		if err := ctx.Err(); err != nil {
			// The update pipeline is gone; the progress message must not
			// stay stale in the chat.
			p.renderError(ctx, chatID, messageID)
			return err
		}

		current, err := p.backend.GetJob(ctx, jobID)
		if err != nil {
			// A failed status check is treated as terminal; see DESIGN.md
			// for the retry-policy discussion.
			p.logger.Error().Err(err).Str("job_id", jobID).Msg("job poll failed")
			p.renderError(ctx, chatID, messageID)
			p.recorder.RecordJob(JobFailed)
			return fmt.Errorf("polling job %s: %w", jobID, err)
		}

		if current.Status.IsFinal() {
			job = current
			break
		}

		p.renderProgress(ctx, current, chatID, messageID)

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	if job.Status != Complete {
		p.renderError(ctx, chatID, messageID)
		p.recorder.RecordJob(JobFailed)
		return nil
	}

	return p.deliver(ctx, job, chatID, messageID)
}

// deliver sends the finished artifact inline when it fits, otherwise (or on
// any inline-delivery trouble) presents the time-limited link.
func (p *Poller) deliver(ctx context.Context, job *Job, chatID, messageID int64) error {
	if job.ContentSize > inlineSizeLimit {
		p.renderLink(ctx, job, chatID, messageID)
		p.recorder.RecordJob(JobDeliveredLink)
		return nil
	}

	content, err := p.backend.Fetch(ctx, job.ID)
	if err != nil {
		p.logger.Error().Err(err).Str("job_id", job.ID).Msg("artifact fetch failed, falling back to link")
		p.renderLink(ctx, job, chatID, messageID)
		p.recorder.RecordJob(JobDeliveredLink)
		return nil
	}
	defer content.Close()

	err = p.bot.SendDocument(ctx, telegram.SendDocumentParams{
		ChatID:   chatID,
		Filename: job.ResultFilename,
		Content:  content,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("job_id", job.ID).Msg("inline delivery failed, falling back to link")
		p.renderLink(ctx, job, chatID, messageID)
		p.recorder.RecordJob(JobDeliveredLink)
		return nil
	}

	if err := p.bot.DeleteMessage(ctx, chatID, messageID); err != nil {
		p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("progress message cleanup failed")
	}
	p.recorder.RecordJob(JobDeliveredInline)
	return nil
}

// renderProgress edits the progress message in place. A transient render
// failure never aborts polling.
func (p *Poller) renderProgress(ctx context.Context, job *Job, chatID, messageID int64) {
	text := fmt.Sprintf(
		"Status:\n⏳ %s\n\nUpdated at %s",
		job.StatusDescription,
		p.now().UTC().Format("15:04:05 UTC"),
	)
	if err := p.bot.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: p.markup(job.ID),
	}); err != nil {
		p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("progress render failed")
	}
}

func (p *Poller) renderLink(ctx context.Context, job *Job, chatID, messageID int64) {
	link := p.backend.PublicLink(job.ID)
	text := fmt.Sprintf(
		"The file can't be delivered to the chat!\nYou can download it <a href=\"%s\">via this link</a> (valid for 3 hours)",
		link,
	)
	if err := p.bot.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: "HTML",
	}); err != nil {
		p.logger.Error().Err(err).Str("job_id", job.ID).Msg("link render failed")
	}
}

func (p *Poller) renderError(ctx context.Context, chatID, messageID int64) {
	// Error renders must go out even when the caller's context is already
	// cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := p.bot.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      genericErrorText,
	}); err != nil {
		p.logger.Warn().Err(err).Msg("error render failed")
	}
}

func (p *Poller) markup(jobID string) *telegram.InlineKeyboardMarkup {
	if p.keyboard == nil {
		return nil
	}
	return p.keyboard(jobID)
}
