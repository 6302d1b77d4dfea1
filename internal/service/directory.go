package service

import (
	"context"
	"path"
	"sort"

	"github.com/boxfleet/boxfleet/internal/compute"
	"github.com/boxfleet/boxfleet/internal/model"
)

// Directory answers "which boxes exist" questions, scoped to one user.
// The provider is the source of truth; nothing here is cached.
type Directory struct {
	provider compute.Provider
}

func NewDirectory(provider compute.Provider) *Directory {
	return &Directory{provider: provider}
}

// List returns the user's boxes sorted by name, so repeated calls (and
// first-match lookups) see a stable order.
func (d *Directory) List(ctx context.Context, user string) ([]model.Box, error) {
	all, err := d.provider.ListBoxes(ctx)
	if err != nil {
		return nil, err
	}

	boxes := make([]model.Box, 0, len(all))
	for _, b := range all {
		if b.User == user {
			boxes = append(boxes, b)
		}
	}
	sort.Slice(boxes, func(i, j int) bool { return boxes[i].Name < boxes[j].Name })
	return boxes, nil
}

// ListAll returns every box regardless of owner, for the reaper.
func (d *Directory) ListAll(ctx context.Context) ([]model.Box, error) {
	boxes, err := d.provider.ListBoxes(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(boxes, func(i, j int) bool { return boxes[i].Name < boxes[j].Name })
	return boxes, nil
}

// Find returns the user's boxes whose name or image alias matches the glob
// pattern, in name order. No match is a not-found error.
func (d *Directory) Find(ctx context.Context, user, pattern string) ([]model.Box, error) {
	boxes, err := d.List(ctx, user)
	if err != nil {
		return nil, err
	}

	var matched []model.Box
	for _, b := range boxes {
		ok, err := path.Match(pattern, b.Name)
		if err != nil {
			return nil, model.Errorf(model.ErrInvalidRequest, "bad pattern %q: %v", pattern, err)
		}
		if !ok && b.ImageAlias != "" {
			ok, _ = path.Match(pattern, b.ImageAlias)
		}
		if ok {
			matched = append(matched, b)
		}
	}
	if len(matched) == 0 {
		return nil, model.Errorf(model.ErrNotFound, "no box matching %q", pattern)
	}
	return matched, nil
}

// FindOne returns the first match in listing order.
func (d *Directory) FindOne(ctx context.Context, user, pattern string) (*model.Box, error) {
	matched, err := d.Find(ctx, user, pattern)
	if err != nil {
		return nil, err
	}
	return &matched[0], nil
}

// lookup finds a user's box by instance id without glob semantics.
func (d *Directory) lookup(ctx context.Context, user, instanceID string) (*model.Box, error) {
	boxes, err := d.List(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range boxes {
		if boxes[i].InstanceID == instanceID {
			return &boxes[i], nil
		}
	}
	return nil, model.Errorf(model.ErrNotFound, "no box %q", instanceID)
}
