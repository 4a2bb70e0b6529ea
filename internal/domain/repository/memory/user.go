package memory

import (
	"context"
	"sort"
	"time"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == user.ID || u.Email == user.Email || u.Username == user.Username {
			return repository.ErrUserExists
		}
	}
	user.CreatedAt = r.s.now()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *userRepo) findBy(match func(*model.User) bool) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Email == email })
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Username == username })
}

func (r *userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.ID == id })
}

func (r *userRepo) List(_ context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	users := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, *u)
	}
	r.s.mu.RUnlock()
	newestFirst(users, func(u *model.User) time.Time { return u.CreatedAt })
	return users, nil
}

func (r *userRepo) mutate(id string, fn func(*model.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *userRepo) UpdateRole(_ context.Context, id, role string) error {
	return r.mutate(id, func(u *model.User) { u.Role = role })
}

func (r *userRepo) SetPlaced(_ context.Context, id string, placed bool) error {
	return r.mutate(id, func(u *model.User) { u.IsPlaced = placed })
}

func (r *userRepo) MarkVerified(_ context.Context, id string) error {
	return r.mutate(id, func(u *model.User) { u.IsVerified = true })
}

func (r *userRepo) AddReputation(_ context.Context, id string, delta int) error {
	return r.mutate(id, func(u *model.User) { u.Reputation += delta })
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *userRepo) Leaderboard(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	r.s.mu.RLock()
	users := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, *u)
	}
	r.s.mu.RUnlock()

	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Reputation != users[j].Reputation {
			return users[i].Reputation > users[j].Reputation
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	entries := make([]model.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = model.LeaderboardEntry{Rank: i + 1, UserID: u.ID, Username: u.Username, Role: u.Role, Reputation: u.Reputation}
	}
	return entries, nil
}
