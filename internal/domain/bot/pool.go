package bot

import "fmt"

// Pool holds the bots of one guild in registration order.
// It is not safe for concurrent use; the owning guild serializes access.
type Pool struct {
	bots []Bot
}

func NewPool(bots []Bot) *Pool {
	p := &Pool{}
	for _, b := range bots {
		p.Add(b)
	}
	return p
}

// Add registers a bot, keeping its position when it is already known.
func (p *Pool) Add(b Bot) {
	if idx := p.indexOf(b.ID); idx >= 0 {
		p.bots[idx].Name = b.Name
		p.bots[idx].Disabled = b.Disabled
		return
	}
	p.bots = append(p.bots, b)
}

// Acquire hands the first available bot to lobbyID.
func (p *Pool) Acquire(lobbyID string) (Bot, error) {
	for i := range p.bots {
		if !p.bots[i].Available() {
			continue
		}
		p.bots[i].LobbyID = lobbyID
		return p.bots[i], nil
	}
	return Bot{}, ErrNoBotAvailable
}

// Claim marks a specific bot as used by lobbyID, used when restoring lobbies.
func (p *Pool) Claim(botID, lobbyID string) error {
	idx := p.indexOf(botID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownBot, botID)
	}
	if owner := p.bots[idx].LobbyID; owner != "" && owner != lobbyID {
		return fmt.Errorf("bot %s already serves lobby %s", botID, owner)
	}
	p.bots[idx].LobbyID = lobbyID
	return nil
}

// Release returns the bot to rotation. It reports whether anything changed.
func (p *Pool) Release(botID string) bool {
	idx := p.indexOf(botID)
	if idx < 0 || p.bots[idx].LobbyID == "" {
		return false
	}
	p.bots[idx].LobbyID = ""
	return true
}

// MarkFailed takes the bot out of rotation and returns the lobby it served.
func (p *Pool) MarkFailed(botID string) (string, error) {
	idx := p.indexOf(botID)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownBot, botID)
	}
	lobbyID := p.bots[idx].LobbyID
	p.bots[idx].Failed = true
	p.bots[idx].LobbyID = ""
	return lobbyID, nil
}

// ClearFailure puts a failed bot back in rotation after a health check.
func (p *Pool) ClearFailure(botID string) error {
	idx := p.indexOf(botID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownBot, botID)
	}
	p.bots[idx].Failed = false
	return nil
}

func (p *Pool) Get(botID string) (Bot, bool) {
	idx := p.indexOf(botID)
	if idx < 0 {
		return Bot{}, false
	}
	return p.bots[idx], true
}

func (p *Pool) Bots() []Bot {
	out := make([]Bot, len(p.bots))
	copy(out, p.bots)
	return out
}

func (p *Pool) indexOf(botID string) int {
	for i, b := range p.bots {
		if b.ID == botID {
			return i
		}
	}
	return -1
}
