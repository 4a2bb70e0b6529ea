package memory

import (
	"context"
	"time"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
	"peer_coach/internal/domain/repository"
)

type resourceRepo struct{ s *Store }

func copyResource(res *model.Resource) model.Resource {
	out := *res
	out.Tags = cloneStrings(res.Tags)
	return out
}

// urlTaken reports whether another resource already uses url. Callers hold s.mu.
func (r *resourceRepo) urlTaken(url, exceptID string) bool {
	for id, res := range r.s.resources {
		if id != exceptID && res.URL == url {
			return true
		}
	}
	return false
}

func (r *resourceRepo) Create(_ context.Context, res *model.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.resources[res.ID]; ok {
		return common.ErrConflict
	}
	if r.urlTaken(res.URL, "") {
		return repository.ErrResourceURLExists
	}
	now := r.s.now()
	res.CreatedAt, res.UpdatedAt = now, now
	stored := copyResource(res)
	r.s.resources[res.ID] = &stored
	return nil
}

func (r *resourceRepo) FindByID(_ context.Context, id string) (*model.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.resources[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := copyResource(res)
	return &out, nil
}

func (r *resourceRepo) List(_ context.Context, filter model.ResourceFilter) ([]model.Resource, error) {
	r.s.mu.RLock()
	out := []model.Resource{}
	for _, res := range r.s.resources {
		if filter.Matches(res) {
			out = append(out, copyResource(res))
		}
	}
	r.s.mu.RUnlock()
	newestFirst(out, func(res *model.Resource) time.Time { return res.CreatedAt })

	limit := filter.Limit
	if limit <= 0 || limit > repository.MaxResourceListing {
		limit = repository.MaxResourceListing
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *resourceRepo) Update(_ context.Context, res *model.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.resources[res.ID]
	if !ok {
		return common.ErrNotFound
	}
	if r.urlTaken(res.URL, res.ID) {
		return repository.ErrResourceURLExists
	}
	stored.Title = res.Title
	stored.URL = res.URL
	stored.Note = res.Note
	stored.Section = res.Section
	stored.Tags = cloneStrings(res.Tags)
	stored.Company = res.Company
	stored.UpdatedAt = r.s.now()
	res.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *resourceRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.resources[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.resources, id)
	return nil
}

func (r *resourceRepo) Approve(_ context.Context, id string) (*model.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.resources[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	res.Approved = true
	res.UpdatedAt = r.s.now()
	out := copyResource(res)
	return &out, nil
}

func (r *resourceRepo) IncrementClicks(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.resources[id]
	if !ok {
		return common.ErrNotFound
	}
	res.Clicks++
	return nil
}
