package bot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crypto-convert-bot/internal/convert"
	"crypto-convert-bot/internal/lifecycle"
	"crypto-convert-bot/internal/market"
	"crypto-convert-bot/internal/metrics"
)

// deleteTimeout bounds a delete issued by the expiry scheduler, which runs
// outside any interaction.
const deleteTimeout = 10 * time.Second

type Converter interface {
	Convert(ctx context.Context, req convert.Request) (convert.Result, string, error)
}

type MarketSnapshots interface {
	List(ctx context.Context, kind market.Kind) ([]market.Entry, error)
	Global(ctx context.Context) (market.GlobalStats, error)
}

type Options struct {
	Identity     Identity
	ExpireAfter  time.Duration
	BugReportURL string
	HelpFooter   string
	Metrics      *metrics.Metrics
	Logger       logrus.FieldLogger
}

// Handler implements every command and callback of the bot on top of Chat.
type Handler struct {
	chat     Chat
	conv     Converter
	snaps    MarketSnapshots
	identity Identity
	bugURL   string
	footer   string
	expiry   *lifecycle.Scheduler
	m        *metrics.Metrics
	log      logrus.FieldLogger
}

func NewHandler(chat Chat, conv Converter, snaps MarketSnapshots, opts Options) *Handler {
	h := &Handler{
		chat:     chat,
		conv:     conv,
		snaps:    snaps,
		identity: opts.Identity,
		bugURL:   opts.BugReportURL,
		footer:   opts.HelpFooter,
		m:        opts.Metrics,
		log:      opts.Logger,
	}
	if h.bugURL == "" {
		h.bugURL = DefaultBugReportURL
	}
	if h.log == nil {
		h.log = logrus.StandardLogger()
	}
	h.expiry = lifecycle.NewScheduler(opts.ExpireAfter, h.expire)
	return h
}

func (h *Handler) Identity() Identity { return h.identity }

// PendingExpiries reports how many snapshot messages await deletion.
func (h *Handler) PendingExpiries() int { return h.expiry.Pending() }

// Close cancels all scheduled deletions.
func (h *Handler) Close() {
	h.expiry.Stop()
}

func (h *Handler) entry(kind, name string, chatID int64) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{
		"req_id":  uuid.NewString(),
		"chat_id": chatID,
		kind:      name,
	})
}

// Start greets the user, with the bot's profile photo when it has one.
func (h *Handler) Start(ctx context.Context, cmd Command) error {
	log := h.entry("command", "start", cmd.ChatID)
	caption := WelcomeText(cmd.Sender.FullName())
	kb := welcomeKeyboard(h.bugURL)

	fileID, err := h.chat.ProfilePhotoID(ctx, h.identity.ID)
	if err != nil {
		log.WithError(err).Warn("fetch bot profile photo failed")
	}
	if fileID != "" {
		_, err = h.chat.SendPhoto(ctx, cmd.ChatID, fileID, caption, kb)
	} else {
		_, err = h.chat.Send(ctx, cmd.ChatID, caption, kb)
	}
	if err != nil {
		log.WithError(err).Error("send welcome failed")
		h.m.Command("start", "error")
		_, sendErr := h.chat.Send(ctx, cmd.ChatID, TextSomethingWrong, nil)
		return errors.Join(err, sendErr)
	}
	h.m.Command("start", "ok")
	log.Info("welcome sent")
	return nil
}

func (h *Handler) Help(ctx context.Context, cmd Command) error {
	log := h.entry("command", "help", cmd.ChatID)
	if _, err := h.chat.Send(ctx, cmd.ChatID, HelpText(h.footer), helpKeyboard(h.bugURL)); err != nil {
		log.WithError(err).Error("send help failed")
		h.m.Command("help", "error")
		return err
	}
	h.m.Command("help", "ok")
	return nil
}

// Convert handles "/conv <amount> <from> <to>".
func (h *Handler) Convert(ctx context.Context, cmd Command) error {
	log := h.entry("command", "conv", cmd.ChatID)

	req, err := convert.ParseArgs(cmd.Args)
	if err != nil {
		log.WithError(err).Warn("invalid conversion request")
		h.m.Command("conv", "invalid")
		text := TextUsage
		if errors.Is(err, convert.ErrAmount) {
			text = TextAmount
		}
		_, sendErr := h.chat.Send(ctx, cmd.ChatID, text, nil)
		return sendErr
	}

	res, text, err := h.conv.Convert(ctx, req)
	if err != nil {
		log.WithError(err).Error("conversion failed")
		h.m.Command("conv", "error")
		_, sendErr := h.chat.Send(ctx, cmd.ChatID, TextPairUnavailable, nil)
		return sendErr
	}

	if _, err := h.chat.Send(ctx, cmd.ChatID, text, conversionKeyboard(res.Token())); err != nil {
		log.WithError(err).Error("send conversion failed")
		h.m.Command("conv", "error")
		return err
	}
	h.m.Command("conv", "ok")
	log.WithFields(logrus.Fields{
		"from":   res.From,
		"to":     res.To,
		"amount": res.Amount,
		"value":  convert.FormatValue(res.ConvertedValue),
	}).Info("converted")
	return nil
}

// Snapshot sends a ranked market list and schedules it for deletion.
func (h *Handler) Snapshot(ctx context.Context, kind market.Kind, cmd Command) error {
	log := h.entry("command", string(kind), cmd.ChatID)

	entries, err := h.snaps.List(ctx, kind)
	if err != nil {
		log.WithError(err).Error("fetch snapshot failed")
		h.m.Command(string(kind), "error")
		_, sendErr := h.chat.Send(ctx, cmd.ChatID, SnapshotFailureText(kind), nil)
		return sendErr
	}
	return h.sendExpiring(ctx, log, string(kind), cmd.ChatID, RenderSnapshot(kind, entries))
}

func (h *Handler) Global(ctx context.Context, cmd Command) error {
	log := h.entry("command", "global", cmd.ChatID)

	stats, err := h.snaps.Global(ctx)
	if err != nil {
		log.WithError(err).Error("fetch global stats failed")
		h.m.Command("global", "error")
		_, sendErr := h.chat.Send(ctx, cmd.ChatID, TextGlobalFailed, nil)
		return sendErr
	}
	return h.sendExpiring(ctx, log, "global", cmd.ChatID, RenderGlobal(stats))
}

func (h *Handler) sendExpiring(ctx context.Context, log *logrus.Entry, command string, chatID int64, text string) error {
	msg, err := h.chat.Send(ctx, chatID, text, nil)
	if err != nil {
		log.WithError(err).Error("send snapshot failed")
		h.m.Command(command, "error")
		return err
	}
	h.expiry.Schedule(msg)
	h.m.Command(command, "ok")
	log.WithField("message_id", msg.MessageID).Infof("snapshot sent, expires in %s", h.expiry.Delay())
	return nil
}

func (h *Handler) expire(msg lifecycle.Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	log := h.log.WithFields(logrus.Fields{"chat_id": msg.ChatID, "message_id": msg.MessageID})
	if err := h.chat.Delete(ctx, msg); err != nil {
		log.WithError(err).Warn("delete expired message failed")
		h.m.ExpiryDelete("error")
		return
	}
	h.m.ExpiryDelete("ok")
	log.Debug("expired message deleted")
}
