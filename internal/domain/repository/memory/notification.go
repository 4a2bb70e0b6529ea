package memory

import (
	"context"
	"time"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
)

type notificationRepo struct{ s *Store }

func copyNotification(n *model.Notification) model.Notification {
	out := *n
	if n.Data != nil {
		out.Data = append([]byte{}, n.Data...)
	}
	return out
}

func (r *notificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[n.ID]; ok {
		return common.ErrConflict
	}
	n.CreatedAt = r.s.now()
	stored := copyNotification(n)
	r.s.notifications[n.ID] = &stored
	return nil
}

func (r *notificationRepo) FindByID(_ context.Context, id string) (*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := copyNotification(n)
	return &out, nil
}

func (r *notificationRepo) ListByUser(_ context.Context, userID string, limit int) ([]model.Notification, error) {
	r.s.mu.RLock()
	out := []model.Notification{}
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			out = append(out, copyNotification(n))
		}
	}
	r.s.mu.RUnlock()
	newestFirst(out, func(n *model.Notification) time.Time { return n.CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return common.ErrNotFound
	}
	n.Read = true
	return nil
}

func (r *notificationRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}
