package bot

import (
	"context"
	"strings"

	"crypto-convert-bot/internal/lifecycle"
)

// Button is an inline keyboard button. Exactly one of Data or URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

// Chat is the part of the messaging platform the handlers need. All texts
// are sent as HTML.
type Chat interface {
	Send(ctx context.Context, chatID int64, text string, kb Keyboard) (lifecycle.Handle, error)
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, kb Keyboard) (lifecycle.Handle, error)
	Edit(ctx context.Context, msg lifecycle.Handle, text string, kb Keyboard) error
	Delete(ctx context.Context, msg lifecycle.Handle) error
	// Answer acknowledges a callback query, showing text as a toast when set.
	Answer(ctx context.Context, callbackID, text string) error
	// ProfilePhotoID returns the file id of the user's latest profile photo,
	// or "" when there is none.
	ProfilePhotoID(ctx context.Context, userID int64) (string, error)
}

// Identity is the bot's own account, fetched once at startup.
type Identity struct {
	ID       int64
	Username string
}

type User struct {
	ID        int64
	FirstName string
	LastName  string
}

func (u User) FullName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{u.FirstName, u.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "User"
	}
	return strings.Join(parts, " ")
}

// Command is an incoming slash command.
type Command struct {
	ChatID int64
	Sender User
	Args   []string
}

// CallbackQuery is a press on one of our inline buttons. Text is the plain
// text of the message the button is attached to.
type CallbackQuery struct {
	ID      string
	Data    string
	Message lifecycle.Handle
	Text    string
	Sender  User
}
