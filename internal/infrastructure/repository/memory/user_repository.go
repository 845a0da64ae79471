package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/user"
)

type standingKey struct {
	guildID  string
	seasonID string
	userID   string
}

type UserRepository struct {
	mu        sync.RWMutex
	users     map[string]user.User
	byAccount map[string]string
	standings map[standingKey]user.Standing
	applied   map[string]struct{}
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:     make(map[string]user.User),
		byAccount: make(map[string]string),
		standings: make(map[standingKey]user.Standing),
		applied:   make(map[string]struct{}),
	}
}

func accountKey(guildID, accountID string) string {
	return guildID + "/" + accountID
}

func (r *UserRepository) GetByAccount(_ context.Context, guildID, accountID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.byAccount[accountKey(guildID, accountID)]
	if !ok {
		return user.User{}, false, nil
	}
	return r.users[userID], true, nil
}

func (r *UserRepository) GetByIDs(_ context.Context, guildID string, userIDs []string) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(userIDs))
	for _, userID := range userIDs {
		if u, ok := r.users[userID]; ok && u.GuildID == guildID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, u user.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := accountKey(u.GuildID, u.AccountID)
	if _, exists := r.byAccount[key]; exists {
		return fmt.Errorf("user for account %s already exists", u.AccountID)
	}
	r.users[u.ID] = u
	r.byAccount[key] = u.ID
	return nil
}

func (r *UserRepository) SetBanExpiry(_ context.Context, guildID, userID string, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok || u.GuildID != guildID {
		return fmt.Errorf("user %s not found", userID)
	}
	if expiresAt != nil {
		v := *expiresAt
		expiresAt = &v
	}
	u.BanExpiresAt = expiresAt
	r.users[userID] = u
	return nil
}

func (r *UserRepository) ApplyMatchResult(_ context.Context, result user.MatchResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, done := r.applied[result.LobbyID]; done {
		return false, nil
	}
	for _, c := range result.Changes {
		if u, ok := r.users[c.UserID]; !ok || u.GuildID != result.GuildID {
			return false, fmt.Errorf("user %s not found", c.UserID)
		}
	}

	for _, c := range result.Changes {
		u := r.users[c.UserID]
		u.Rating += c.Delta()
		if c.Won {
			u.Wins++
		} else {
			u.Losses++
		}
		r.users[c.UserID] = u

		key := standingKey{guildID: result.GuildID, seasonID: result.SeasonID, userID: c.UserID}
		row := r.standings[key]
		row.UserID = u.ID
		row.AccountID = u.AccountID
		row.Rating = u.Rating
		if c.Won {
			row.Wins++
		} else {
			row.Losses++
		}
		r.standings[key] = row
	}
	r.applied[result.LobbyID] = struct{}{}
	return true, nil
}

func (r *UserRepository) ListStandings(_ context.Context, guildID, seasonID string, limit int) ([]user.Standing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.Standing, 0)
	for key, row := range r.standings {
		if key.guildID == guildID && key.seasonID == seasonID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
