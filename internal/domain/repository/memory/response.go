package memory

import (
	"context"
	"time"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
)

type responseRepo struct{ s *Store }

// view copies a stored response and joins the author. Callers hold s.mu.
func (r *responseRepo) view(resp *model.Response) model.Response {
	out := *resp
	out.Attachments = append([]model.Attachment{}, resp.Attachments...)
	if resp.UpdatedAt != nil {
		t := *resp.UpdatedAt
		out.UpdatedAt = &t
	}
	out.AuthorUsername, out.AuthorRole = "", ""
	if u, ok := r.s.users[resp.AuthorID]; ok {
		out.AuthorUsername, out.AuthorRole = u.Username, u.Role
	}
	return out
}

func (r *responseRepo) Create(_ context.Context, resp *model.Response) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doubts[resp.DoubtID]; !ok {
		return common.ErrNotFound
	}
	if _, ok := r.s.responses[resp.ID]; ok {
		return common.ErrConflict
	}
	resp.CreatedAt = r.s.now()
	resp.UpdatedAt = nil
	stored := *resp
	stored.Attachments = append([]model.Attachment{}, resp.Attachments...)
	r.s.responses[resp.ID] = &stored
	return nil
}

func (r *responseRepo) FindByID(_ context.Context, id string) (*model.Response, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	resp, ok := r.s.responses[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := r.view(resp)
	return &out, nil
}

func (r *responseRepo) collect(match func(*model.Response) bool) []model.Response {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Response{}
	for _, resp := range r.s.responses {
		if match(resp) {
			out = append(out, r.view(resp))
		}
	}
	return out
}

func (r *responseRepo) ListByDoubt(_ context.Context, doubtID string) ([]model.Response, error) {
	out := r.collect(func(resp *model.Response) bool { return resp.DoubtID == doubtID })
	oldestFirst(out, func(resp *model.Response) time.Time { return resp.CreatedAt })
	return out, nil
}

func (r *responseRepo) ListByAuthor(_ context.Context, authorID string) ([]model.Response, error) {
	out := r.collect(func(resp *model.Response) bool { return resp.AuthorID == authorID })
	newestFirst(out, func(resp *model.Response) time.Time { return resp.CreatedAt })
	return out, nil
}

func (r *responseRepo) Update(_ context.Context, resp *model.Response) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.responses[resp.ID]
	if !ok {
		return common.ErrNotFound
	}
	now := r.s.now()
	stored.Content = resp.Content
	stored.Attachments = append([]model.Attachment{}, resp.Attachments...)
	stored.UpdatedAt = &now
	updated := now
	resp.UpdatedAt = &updated
	return nil
}

func (r *responseRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.responses[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.responses, id)
	return nil
}

func (r *responseRepo) DeleteByDoubt(_ context.Context, doubtID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, resp := range r.s.responses {
		if resp.DoubtID == doubtID {
			delete(r.s.responses, id)
		}
	}
	return nil
}

func (r *responseRepo) IncrementLikes(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	resp, ok := r.s.responses[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	resp.Likes++
	return resp.Likes, nil
}
