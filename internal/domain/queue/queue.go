package queue

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAlreadyQueued = errors.New("user already queued")
	ErrBanned        = errors.New("user is banned from the queue")
)

// Entry is one waiting user.
type Entry struct {
	UserID      string
	AccountID   string
	Rating      int
	CaptainRank int
	JoinedAt    time.Time
}

// Queue is the FIFO of users waiting for a lobby in one guild.
// It is not safe for concurrent use; the owning guild serializes access.
type Queue struct {
	entries []Entry
}

func New() *Queue {
	return &Queue{}
}

func (q *Queue) Len() int {
	return len(q.entries)
}

func (q *Queue) Contains(userID string) bool {
	return q.indexOf(userID) >= 0
}

// Join appends the user and returns the new queue length.
func (q *Queue) Join(entry Entry) (int, error) {
	if entry.UserID == "" {
		return len(q.entries), fmt.Errorf("queue entry user id is required")
	}
	if q.Contains(entry.UserID) {
		return len(q.entries), fmt.Errorf("%w: user=%s", ErrAlreadyQueued, entry.UserID)
	}

	q.entries = append(q.entries, entry)
	return len(q.entries), nil
}

// Leave removes the user; absent users are ignored.
func (q *Queue) Leave(userID string) bool {
	idx := q.indexOf(userID)
	if idx < 0 {
		return false
	}

	q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
	return true
}

// Drain removes and returns the n earliest entries, or nothing when fewer are waiting.
func (q *Queue) Drain(n int) []Entry {
	if n <= 0 || len(q.entries) < n {
		return nil
	}

	out := make([]Entry, n)
	copy(out, q.entries[:n])
	q.entries = append([]Entry(nil), q.entries[n:]...)
	return out
}

// PushFront puts entries back at the head keeping their relative order.
// Entries already waiting are skipped.
func (q *Queue) PushFront(entries []Entry) {
	head := make([]Entry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.UserID]; dup || q.Contains(e.UserID) {
			continue
		}
		seen[e.UserID] = struct{}{}
		head = append(head, e)
	}

	q.entries = append(head, q.entries...)
}

func (q *Queue) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *Queue) indexOf(userID string) int {
	for i, e := range q.entries {
		if e.UserID == userID {
			return i
		}
	}
	return -1
}
