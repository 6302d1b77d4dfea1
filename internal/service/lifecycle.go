package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/boxfleet/boxfleet/internal/compute"
	"github.com/boxfleet/boxfleet/internal/keys"
	"github.com/boxfleet/boxfleet/internal/model"
	"github.com/boxfleet/boxfleet/internal/store"
)

// CustomImageAlias is recorded on boxes created from a literal image
// reference rather than a stored alias.
const CustomImageAlias = "custom"

// DefaultTTLSeconds is applied when a create request names no TTL.
const DefaultTTLSeconds = 4 * 60 * 60

// Lifecycle creates, deletes, and reboots boxes on behalf of one user per
// call. Ownership is enforced through the directory before any provider
// mutation.
type Lifecycle struct {
	provider  compute.Provider
	directory *Directory
	aliases   *store.AliasStore
	keys      keys.Fetcher

	namePrefix string
	defaultTTL int64
}

func NewLifecycle(provider compute.Provider, directory *Directory, aliases *store.AliasStore, fetcher keys.Fetcher) *Lifecycle {
	return &Lifecycle{
		provider:   provider,
		directory:  directory,
		aliases:    aliases,
		keys:       fetcher,
		namePrefix: "boxfleet",
		defaultTTL: DefaultTTLSeconds,
	}
}

// SetDefaultTTL overrides the TTL applied when a create request names none.
func (l *Lifecycle) SetDefaultTTL(d time.Duration) {
	if d > 0 {
		l.defaultTTL = int64(d.Seconds())
	}
}

// CreateResult distinguishes a fresh box from an existing set returned when
// the requested name was already taken.
type CreateResult struct {
	Boxes   []model.Box
	Created bool
}

// Create resolves the image, defaults the name/type/TTL, injects the user's
// public key, and launches the box. A name collision resolves to success:
// the existing matching boxes come back with Created=false so retries are
// idempotent.
func (l *Lifecycle) Create(ctx context.Context, user string, req model.CreateBoxRequest) (*CreateResult, error) {
	if req.Image == "" {
		return nil, model.Errorf(model.ErrInvalidRequest, "image is required")
	}

	alias, imageID, err := l.resolveImage(ctx, user, req.Image)
	if err != nil {
		return nil, err
	}

	boxName := req.Name
	if boxName == "" {
		boxName = fmt.Sprintf("%s-%s-%s", l.namePrefix, user, alias)
	}

	// Name collision: hand back what already exists instead of failing,
	// so a retried create converges.
	existing, err := l.directory.List(ctx, user)
	if err != nil {
		return nil, err
	}
	var collided []model.Box
	for _, b := range existing {
		if b.Name == boxName {
			collided = append(collided, b)
		}
	}
	if len(collided) > 0 {
		slog.Default().With("component", "lifecycle").Info("create resolved to existing boxes",
			"user", user, "name", boxName, "count", len(collided))
		return &CreateResult{Boxes: collided, Created: false}, nil
	}

	publicKey, err := l.keys.PublicKey(ctx, user)
	if err != nil {
		return nil, err
	}

	instanceType := req.InstanceType
	if instanceType == "" {
		instanceType = compute.InstanceTypeForAlias(alias)
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = l.defaultTTL
	}

	box, err := l.provider.CreateBox(ctx, compute.CreateOptions{
		User:         user,
		Name:         boxName,
		ImageAlias:   alias,
		ImageID:      imageID,
		InstanceType: instanceType,
		TTL:          ttl,
		Connect:      req.Connect,
		PublicKey:    publicKey,
	})
	if err != nil {
		return nil, err
	}

	slog.Default().With("component", "lifecycle").Info("created box",
		"user", user, "name", boxName, "instance_id", box.InstanceID, "image", imageID, "ttl", ttl)
	return &CreateResult{Boxes: []model.Box{*box}, Created: true}, nil
}

// resolveImage maps the request's image field to (alias, image id). A stored
// alias wins; a literal image reference (anything with a registry, path, tag
// or digest separator) is accepted as-is under the custom alias; a bare word
// that is not a stored alias is a conflict.
func (l *Lifecycle) resolveImage(ctx context.Context, user, image string) (string, string, error) {
	stored, err := l.aliases.Resolve(ctx, user, image)
	if err != nil {
		return "", "", err
	}
	if stored != nil {
		return stored.Alias, stored.ImageID, nil
	}

	if strings.ContainsAny(image, "/:@") {
		if _, err := name.ParseReference(image); err != nil {
			return "", "", model.Errorf(model.ErrConflict, "invalid image reference %q: %v", image, err)
		}
		return CustomImageAlias, image, nil
	}

	return "", "", model.Errorf(model.ErrConflict, "unknown image alias %q", image)
}

// Delete tears down one of the user's boxes and returns its last-known
// snapshot. Boxes the user does not own are indistinguishable from absent
// ones.
func (l *Lifecycle) Delete(ctx context.Context, user, instanceID string) (*model.Box, error) {
	box, err := l.directory.lookup(ctx, user, instanceID)
	if err != nil {
		return nil, err
	}
	if err := l.provider.TerminateBox(ctx, instanceID); err != nil {
		return nil, err
	}
	slog.Default().With("component", "lifecycle").Info("deleted box",
		"user", user, "instance_id", instanceID, "name", box.Name)
	return box, nil
}

// Reboot restarts one of the user's boxes in place. Safe to retry.
func (l *Lifecycle) Reboot(ctx context.Context, user, instanceID string) error {
	if _, err := l.directory.lookup(ctx, user, instanceID); err != nil {
		return err
	}
	if err := l.provider.RebootBox(ctx, instanceID); err != nil {
		return err
	}
	slog.Default().With("component", "lifecycle").Info("rebooted box",
		"user", user, "instance_id", instanceID)
	return nil
}
