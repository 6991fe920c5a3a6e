package bot

import (
	"context"

	"crypto-convert-bot/internal/convert"
	"crypto-convert-bot/internal/lifecycle"
)

// Callback dispatches an inline button press. Every query is answered
// exactly once.
func (h *Handler) Callback(ctx context.Context, q CallbackQuery) error {
	switch {
	case convert.IsRefreshToken(q.Data):
		return h.refresh(ctx, q)
	case q.Data == DataDelete:
		return h.deleteMessage(ctx, q)
	case q.Data == DataShowHelp:
		return h.showHelp(ctx, q)
	default:
		h.entry("callback", "unknown", q.Message.ChatID).WithField("data", q.Data).Warn("unknown callback")
		return h.chat.Answer(ctx, q.ID, "")
	}
}

// refresh re-prices the conversion in the token and edits the message only
// when the visible content differs.
func (h *Handler) refresh(ctx context.Context, q CallbackQuery) error {
	log := h.entry("callback", "refresh", q.Message.ChatID).WithField("message_id", q.Message.MessageID)

	tok, err := convert.ParseRefreshToken(q.Data)
	if err != nil {
		log.WithError(err).Warn("bad refresh token")
		h.m.Refresh("failed")
		return h.chat.Answer(ctx, q.ID, TextRefreshFailed)
	}

	_, fresh, err := h.conv.Convert(ctx, tok.Request())
	if err != nil {
		log.WithError(err).Error("refresh failed")
		h.m.Refresh("failed")
		return h.chat.Answer(ctx, q.ID, TextRefreshFailed)
	}

	action := lifecycle.Decide(q.Text, convert.PlainText(fresh))
	log = log.WithField("action", action.String())
	if action == lifecycle.ActionKeep {
		h.m.Refresh("unchanged")
		log.Info("prices are up-to-date")
		return h.chat.Answer(ctx, q.ID, TextUpToDate)
	}

	if err := h.chat.Edit(ctx, q.Message, fresh, conversionKeyboard(tok)); err != nil {
		log.WithError(err).Warn("edit refreshed message failed")
		h.m.Refresh("failed")
		return h.chat.Answer(ctx, q.ID, TextRefreshFailed)
	}
	h.m.Refresh("edited")
	log.Info("message refreshed")
	return h.chat.Answer(ctx, q.ID, TextRefreshed)
}

// deleteMessage removes the message the button belongs to. Failures, e.g.
// the message is already gone, are only logged.
func (h *Handler) deleteMessage(ctx context.Context, q CallbackQuery) error {
	log := h.entry("callback", "delete", q.Message.ChatID).WithField("message_id", q.Message.MessageID)

	h.expiry.Cancel(q.Message)
	if err := h.chat.Delete(ctx, q.Message); err != nil {
		log.WithError(err).Warn("delete failed")
	} else {
		log.Info("message deleted")
	}
	return h.chat.Answer(ctx, q.ID, "")
}

// showHelp replaces the welcome message with the command reference.
func (h *Handler) showHelp(ctx context.Context, q CallbackQuery) error {
	log := h.entry("callback", "show_help", q.Message.ChatID)

	if err := h.chat.Answer(ctx, q.ID, ""); err != nil {
		log.WithError(err).Warn("answer callback failed")
	}
	if err := h.chat.Delete(ctx, q.Message); err != nil {
		log.WithError(err).Warn("delete welcome failed")
	}
	if _, err := h.chat.Send(ctx, q.Message.ChatID, HelpText(h.footer), helpKeyboard(h.bugURL)); err != nil {
		log.WithError(err).Error("send help failed")
		return err
	}
	return nil
}
