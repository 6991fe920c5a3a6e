package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v4"

	"crypto-convert-bot/internal/bot"
	"crypto-convert-bot/internal/lifecycle"
	"crypto-convert-bot/internal/market"
)

const DefaultPollTimeout = 10 * time.Second

// Handler receives the decoded updates.
type Handler interface {
	Start(ctx context.Context, cmd bot.Command) error
	Help(ctx context.Context, cmd bot.Command) error
	Convert(ctx context.Context, cmd bot.Command) error
	Snapshot(ctx context.Context, kind market.Kind, cmd bot.Command) error
	Global(ctx context.Context, cmd bot.Command) error
	Callback(ctx context.Context, q bot.CallbackQuery) error
}

// Client adapts a long-polling telebot.Bot to bot.Chat.
type Client struct {
	tb  *telebot.Bot
	log logrus.FieldLogger
}

type Config struct {
	Token       string
	PollTimeout time.Duration
	// Offline skips the getMe call, for tests.
	Offline bool
}

func NewClient(cfg Config, log logrus.FieldLogger) (*Client, error) {
	if cfg.Token == "" && !cfg.Offline {
		return nil, fmt.Errorf("telegram token is empty")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	pref := telebot.Settings{
		Token:   cfg.Token,
		Poller:  &telebot.LongPoller{Timeout: cfg.PollTimeout},
		Offline: cfg.Offline,
		OnError: func(err error, c telebot.Context) {
			entry := log.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("telegram handler failed")
		},
	}
	tb, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Client{tb: tb, log: log}, nil
}

// Identity is the account behind the token as reported at startup.
func (c *Client) Identity() bot.Identity {
	if c.tb.Me == nil {
		return bot.Identity{}
	}
	return bot.Identity{ID: c.tb.Me.ID, Username: c.tb.Me.Username}
}

// Register routes every command and callback to h.
func (c *Client) Register(h Handler) {
	command := func(fn func(context.Context, bot.Command) error) telebot.HandlerFunc {
		return func(tc telebot.Context) error {
			return fn(context.Background(), commandFrom(tc))
		}
	}
	snapshot := func(kind market.Kind) telebot.HandlerFunc {
		return func(tc telebot.Context) error {
			return h.Snapshot(context.Background(), kind, commandFrom(tc))
		}
	}

	c.tb.Handle("/start", command(h.Start))
	c.tb.Handle("/help", command(h.Help))
	c.tb.Handle("/conv", command(h.Convert))
	c.tb.Handle("/top10", snapshot(market.KindTop))
	c.tb.Handle("/gainers", snapshot(market.KindGainers))
	c.tb.Handle("/losers", snapshot(market.KindLosers))
	c.tb.Handle("/trending", snapshot(market.KindTrending))
	c.tb.Handle("/global", command(h.Global))
	c.tb.Handle(telebot.OnCallback, func(tc telebot.Context) error {
		return h.Callback(context.Background(), callbackFrom(tc.Callback()))
	})
}

// Start polls until Stop is called.
func (c *Client) Start() {
	c.log.WithField("username", c.Identity().Username).Info("telegram polling started")
	c.tb.Start()
}

func (c *Client) Stop() {
	c.tb.Stop()
}

func (c *Client) Send(_ context.Context, chatID int64, text string, kb bot.Keyboard) (lifecycle.Handle, error) {
	msg, err := c.tb.Send(telebot.ChatID(chatID), text, sendOptions(kb))
	if err != nil {
		return lifecycle.Handle{}, fmt.Errorf("send message: %w", err)
	}
	return lifecycle.Handle{ChatID: chatID, MessageID: msg.ID}, nil
}

func (c *Client) SendPhoto(_ context.Context, chatID int64, fileID, caption string, kb bot.Keyboard) (lifecycle.Handle, error) {
	photo := &telebot.Photo{File: telebot.File{FileID: fileID}, Caption: caption}
	msg, err := c.tb.Send(telebot.ChatID(chatID), photo, sendOptions(kb))
	if err != nil {
		return lifecycle.Handle{}, fmt.Errorf("send photo: %w", err)
	}
	return lifecycle.Handle{ChatID: chatID, MessageID: msg.ID}, nil
}

func (c *Client) Edit(_ context.Context, msg lifecycle.Handle, text string, kb bot.Keyboard) error {
	if _, err := c.tb.Edit(stored(msg), text, sendOptions(kb)); err != nil {
		return fmt.Errorf("edit message %d: %w", msg.MessageID, err)
	}
	return nil
}

func (c *Client) Delete(_ context.Context, msg lifecycle.Handle) error {
	if err := c.tb.Delete(stored(msg)); err != nil {
		return fmt.Errorf("delete message %d: %w", msg.MessageID, err)
	}
	return nil
}

func (c *Client) Answer(_ context.Context, callbackID, text string) error {
	cb := &telebot.Callback{ID: callbackID}
	var err error
	if text == "" {
		err = c.tb.Respond(cb)
	} else {
		err = c.tb.Respond(cb, &telebot.CallbackResponse{Text: text})
	}
	if err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (c *Client) ProfilePhotoID(_ context.Context, userID int64) (string, error) {
	photos, err := c.tb.ProfilePhotosOf(&telebot.User{ID: userID})
	if err != nil {
		return "", fmt.Errorf("profile photos: %w", err)
	}
	if len(photos) == 0 {
		return "", nil
	}
	return photos[0].FileID, nil
}

func stored(msg lifecycle.Handle) telebot.StoredMessage {
	return telebot.StoredMessage{MessageID: strconv.Itoa(msg.MessageID), ChatID: msg.ChatID}
}

func sendOptions(kb bot.Keyboard) *telebot.SendOptions {
	opts := &telebot.SendOptions{ParseMode: telebot.ModeHTML}
	if len(kb) > 0 {
		opts.ReplyMarkup = markup(kb)
	}
	return opts
}

func markup(kb bot.Keyboard) *telebot.ReplyMarkup {
	rows := make([][]telebot.InlineButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]telebot.InlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, telebot.InlineButton{Text: b.Text, Data: b.Data, URL: b.URL})
		}
		rows = append(rows, buttons)
	}
	return &telebot.ReplyMarkup{InlineKeyboard: rows}
}

func userFrom(u *telebot.User) bot.User {
	if u == nil {
		return bot.User{}
	}
	return bot.User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

func commandFrom(tc telebot.Context) bot.Command {
	cmd := bot.Command{Sender: userFrom(tc.Sender()), Args: tc.Args()}
	if chat := tc.Chat(); chat != nil {
		cmd.ChatID = chat.ID
	}
	return cmd
}

func callbackFrom(cb *telebot.Callback) bot.CallbackQuery {
	if cb == nil {
		return bot.CallbackQuery{}
	}
	q := bot.CallbackQuery{ID: cb.ID, Data: cb.Data, Sender: userFrom(cb.Sender)}
	if m := cb.Message; m != nil {
		q.Message = lifecycle.Handle{MessageID: m.ID}
		if m.Chat != nil {
			q.Message.ChatID = m.Chat.ID
		}
		q.Text = m.Text
		if q.Text == "" {
			q.Text = m.Caption
		}
	}
	return q
}
