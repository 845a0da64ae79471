package queue

import "time"

// BanRegistry tracks queue bans of one guild. Expired bans are dropped on lookup.
type BanRegistry struct {
	bans map[string]time.Time
}

func NewBanRegistry() *BanRegistry {
	return &BanRegistry{bans: make(map[string]time.Time)}
}

func (r *BanRegistry) Ban(userID string, expiresAt time.Time) {
	r.bans[userID] = expiresAt
}

func (r *BanRegistry) Lift(userID string) {
	delete(r.bans, userID)
}

// Active returns the expiry of the user's ban when it is still in force at now.
func (r *BanRegistry) Active(userID string, now time.Time) (time.Time, bool) {
	expiresAt, ok := r.bans[userID]
	if !ok {
		return time.Time{}, false
	}
	if !expiresAt.After(now) {
		delete(r.bans, userID)
		return time.Time{}, false
	}

	return expiresAt, true
}

func (r *BanRegistry) Len() int {
	return len(r.bans)
}
