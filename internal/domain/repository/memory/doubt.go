package memory

import (
	"context"
	"time"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
)

type doubtRepo struct{ s *Store }

// view copies a stored doubt and joins the poster's username. Callers hold s.mu.
func (r *doubtRepo) view(d *model.Doubt) model.Doubt {
	out := *d
	out.Tags = cloneStrings(d.Tags)
	if d.ResolvedBy != nil {
		rb := *d.ResolvedBy
		out.ResolvedBy = &rb
	}
	out.PostedByUsername = ""
	if u, ok := r.s.users[d.PostedBy]; ok {
		out.PostedByUsername = u.Username
	}
	return out
}

func (r *doubtRepo) Create(_ context.Context, d *model.Doubt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doubts[d.ID]; ok {
		return common.ErrConflict
	}
	d.CreatedAt = r.s.now()
	stored := *d
	stored.Tags = cloneStrings(d.Tags)
	r.s.doubts[d.ID] = &stored
	return nil
}

func (r *doubtRepo) FindByID(_ context.Context, id string) (*model.Doubt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.doubts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := r.view(d)
	return &out, nil
}

func (r *doubtRepo) List(_ context.Context) ([]model.Doubt, error) {
	r.s.mu.RLock()
	doubts := make([]model.Doubt, 0, len(r.s.doubts))
	for _, d := range r.s.doubts {
		doubts = append(doubts, r.view(d))
	}
	r.s.mu.RUnlock()
	newestFirst(doubts, func(d *model.Doubt) time.Time { return d.CreatedAt })
	return doubts, nil
}

func (r *doubtRepo) Update(_ context.Context, d *model.Doubt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.doubts[d.ID]
	if !ok {
		return common.ErrNotFound
	}
	stored.Title = d.Title
	stored.Slug = d.Slug
	stored.Description = d.Description
	stored.Tags = cloneStrings(d.Tags)
	stored.Status = d.Status
	stored.ResolvedBy = nil
	if d.ResolvedBy != nil {
		rb := *d.ResolvedBy
		stored.ResolvedBy = &rb
	}
	return nil
}

func (r *doubtRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doubts[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.doubts, id)
	for rid, resp := range r.s.responses {
		if resp.DoubtID == id {
			delete(r.s.responses, rid)
		}
	}
	return nil
}

func (r *doubtRepo) ClearResolution(_ context.Context, doubtID, responseID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doubts[doubtID]
	if !ok || d.ResolvedBy == nil || *d.ResolvedBy != responseID {
		return false, nil
	}
	d.Status = model.DoubtStatusOpen
	d.ResolvedBy = nil
	return true, nil
}
