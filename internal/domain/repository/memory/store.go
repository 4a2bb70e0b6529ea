// Package memory is an in-process implementation of the repository
// interfaces. It mirrors the Postgres semantics: unique keys, the
// responses cascade on doubt deletion, atomic counters, and joined
// display names that go empty once the referenced user is deleted.
package memory

import (
	"sort"
	"sync"
	"time"

	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"
)

type Store struct {
	mu sync.RWMutex

	users         map[string]*model.User
	doubts        map[string]*model.Doubt
	responses     map[string]*model.Response
	notifications map[string]*model.Notification
	resources     map[string]*model.Resource

	last time.Time
}

func New() *Store {
	return &Store{
		users:         make(map[string]*model.User),
		doubts:        make(map[string]*model.Doubt),
		responses:     make(map[string]*model.Response),
		notifications: make(map[string]*model.Notification),
		resources:     make(map[string]*model.Resource),
	}
}

func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

func (s *Store) Doubts() repository.DoubtRepository { return &doubtRepo{s} }

func (s *Store) Responses() repository.ResponseRepository { return &responseRepo{s} }

func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepo{s} }

func (s *Store) Resources() repository.ResourceRepository { return &resourceRepo{s} }

// now returns a strictly increasing timestamp so that creation order is
// total even when the wall clock does not advance. Callers hold s.mu.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newestFirst[T any](items []T, created func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(&items[i]).After(created(&items[j]))
	})
}

func oldestFirst[T any](items []T, created func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(&items[i]).Before(created(&items[j]))
	})
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
