package bot

import (
	"errors"
	"fmt"
)

var (
	ErrNoBotAvailable = errors.New("no bot available")
	ErrUnknownBot     = errors.New("unknown bot")
)

// Bot is a hosting account able to run one match at a time.
type Bot struct {
	ID       string
	GuildID  string
	Name     string
	LobbyID  string
	Failed   bool
	Disabled bool
}

func (b Bot) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("bot id is required")
	}
	if b.GuildID == "" {
		return fmt.Errorf("bot guild id is required")
	}
	return nil
}

// Available reports whether the bot can be handed to a lobby.
func (b Bot) Available() bool {
	return b.LobbyID == "" && !b.Failed && !b.Disabled
}
