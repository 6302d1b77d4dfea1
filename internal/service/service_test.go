package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/boxfleet/boxfleet/internal/compute"
	"github.com/boxfleet/boxfleet/internal/lifecycle"
	"github.com/boxfleet/boxfleet/internal/model"
	"github.com/boxfleet/boxfleet/internal/store"
)

// fakeProvider keeps boxes in a slice and records terminations.
type fakeProvider struct {
	boxes      []model.Box
	terminated []string
	rebooted   []string

	failTerminate map[string]bool
	nextID        int
}

func (f *fakeProvider) CreateBox(ctx context.Context, opts compute.CreateOptions) (*model.Box, error) {
	f.nextID++
	box := model.Box{
		InstanceID:   fmt.Sprintf("box-%08d", f.nextID),
		User:         opts.User,
		Name:         opts.Name,
		ImageAlias:   opts.ImageAlias,
		ImageID:      opts.ImageID,
		InstanceType: opts.InstanceType,
		CreatedAt:    strconv.FormatInt(time.Now().Unix(), 10),
		TTL:          opts.TTL,
		Tags:         opts.Tags,
	}
	f.boxes = append(f.boxes, box)
	return &box, nil
}

func (f *fakeProvider) ListBoxes(ctx context.Context) ([]model.Box, error) {
	out := make([]model.Box, len(f.boxes))
	copy(out, f.boxes)
	return out, nil
}

func (f *fakeProvider) TerminateBox(ctx context.Context, instanceID string) error {
	if f.failTerminate[instanceID] {
		return model.Errorf(model.ErrBackendUnavailable, "terminate %s", instanceID)
	}
	f.terminated = append(f.terminated, instanceID)
	for i, b := range f.boxes {
		if b.InstanceID == instanceID {
			f.boxes = append(f.boxes[:i], f.boxes[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeProvider) RebootBox(ctx context.Context, instanceID string) error {
	f.rebooted = append(f.rebooted, instanceID)
	return nil
}

// fakeKeys hands out a fixed key, or an error for unknown users.
type fakeKeys struct {
	known map[string]string
}

func (f *fakeKeys) PublicKey(ctx context.Context, user string) (string, error) {
	key, ok := f.known[user]
	if !ok {
		return "", model.Errorf(model.ErrInvalidRequest, "no github user %q", user)
	}
	return key, nil
}

func initTestStore(t *testing.T) *store.AliasStore {
	t.Helper()
	if err := store.InitDB(filepath.Join(t.TempDir(), "boxfleet.db")); err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	t.Cleanup(func() { store.CloseDB() })
	return store.NewAliasStore()
}

func newTestLifecycle(t *testing.T, p *fakeProvider) (*Lifecycle, *Directory, *store.AliasStore) {
	t.Helper()
	aliases := initTestStore(t)
	dir := NewDirectory(p)
	fetcher := &fakeKeys{known: map[string]string{"alice": "ssh-ed25519 AAAA alice"}}
	return NewLifecycle(p, dir, aliases, fetcher), dir, aliases
}

func seedBox(p *fakeProvider, user, name, alias, createdAt string, ttl int64) model.Box {
	p.nextID++
	box := model.Box{
		InstanceID: fmt.Sprintf("box-%08d", p.nextID),
		User:       user,
		Name:       name,
		ImageAlias: alias,
		CreatedAt:  createdAt,
		TTL:        ttl,
	}
	p.boxes = append(p.boxes, box)
	return box
}

func TestDirectoryListSortedAndScoped(t *testing.T) {
	p := &fakeProvider{}
	seedBox(p, "alice", "zeta", "", "", 60)
	seedBox(p, "alice", "alpha", "", "", 60)
	seedBox(p, "bob", "beta", "", "", 60)

	dir := NewDirectory(p)
	boxes, err := dir.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(boxes) != 2 || boxes[0].Name != "alpha" || boxes[1].Name != "zeta" {
		t.Fatalf("List() = %+v", boxes)
	}
}

func TestDirectoryFind(t *testing.T) {
	p := &fakeProvider{}
	seedBox(p, "alice", "web-1", "ubuntu24", "", 60)
	seedBox(p, "alice", "web-2", "ubuntu24", "", 60)
	seedBox(p, "alice", "db", "postgres16", "", 60)

	dir := NewDirectory(p)
	ctx := context.Background()

	matched, err := dir.Find(ctx, "alice", "web-*")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("Find(web-*) = %+v", matched)
	}

	// Globs also match the image alias.
	matched, err = dir.Find(ctx, "alice", "postgres*")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(matched) != 1 || matched[0].Name != "db" {
		t.Fatalf("Find(postgres*) = %+v", matched)
	}

	if _, err := dir.Find(ctx, "alice", "nothing-*"); !model.IsNotFound(err) {
		t.Fatalf("Find() no match error = %v, want not found", err)
	}
	if _, err := dir.Find(ctx, "alice", "[bad"); !model.IsInvalid(err) {
		t.Fatalf("Find() bad pattern error = %v, want invalid", err)
	}

	// First match follows name order.
	one, err := dir.FindOne(ctx, "alice", "web-*")
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if one.Name != "web-1" {
		t.Fatalf("FindOne() = %q, want web-1", one.Name)
	}
}

func TestLifecycleCreateDefaults(t *testing.T) {
	p := &fakeProvider{}
	lc, _, aliases := newTestLifecycle(t, p)
	ctx := context.Background()

	if _, err := aliases.Create(ctx, "alice", "ubuntu24", "ubuntu:24.04"); err != nil {
		t.Fatalf("alias Create() error = %v", err)
	}

	res, err := lc.Create(ctx, "alice", model.CreateBoxRequest{Image: "ubuntu24"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !res.Created || len(res.Boxes) != 1 {
		t.Fatalf("Create() = %+v", res)
	}
	box := res.Boxes[0]
	if box.Name != "boxfleet-alice-ubuntu24" {
		t.Fatalf("default name = %q", box.Name)
	}
	if box.ImageAlias != "ubuntu24" || box.ImageID != "ubuntu:24.04" {
		t.Fatalf("image fields = %q / %q", box.ImageAlias, box.ImageID)
	}
	if box.TTL != DefaultTTLSeconds {
		t.Fatalf("ttl = %d, want %d", box.TTL, DefaultTTLSeconds)
	}
	if box.InstanceType != compute.DefaultInstanceType {
		t.Fatalf("instance type = %q", box.InstanceType)
	}
}

func TestLifecycleCreateFamilyInstanceType(t *testing.T) {
	p := &fakeProvider{}
	lc, _, aliases := newTestLifecycle(t, p)
	ctx := context.Background()

	if _, err := aliases.Create(ctx, "alice", "sles12", "registry.suse.com/suse/sles12sp5:latest"); err != nil {
		t.Fatalf("alias Create() error = %v", err)
	}

	res, err := lc.Create(ctx, "alice", model.CreateBoxRequest{Image: "sles12"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := res.Boxes[0].InstanceType; got != "t2.small" {
		t.Fatalf("instance type = %q, want the sles12 family default t2.small", got)
	}

	// An explicit type still wins over the family default.
	res, err = lc.Create(ctx, "alice", model.CreateBoxRequest{
		Image: "sles12", Name: "big", InstanceType: "m5.large",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := res.Boxes[0].InstanceType; got != "m5.large" {
		t.Fatalf("instance type = %q, want m5.large", got)
	}
}

func TestLifecycleCreateNameCollision(t *testing.T) {
	p := &fakeProvider{}
	lc, _, aliases := newTestLifecycle(t, p)
	ctx := context.Background()

	if _, err := aliases.Create(ctx, "alice", "ubuntu24", "ubuntu:24.04"); err != nil {
		t.Fatalf("alias Create() error = %v", err)
	}

	first, err := lc.Create(ctx, "alice", model.CreateBoxRequest{Image: "ubuntu24"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := lc.Create(ctx, "alice", model.CreateBoxRequest{Image: "ubuntu24"})
	if err != nil {
		t.Fatalf("Create() retry error = %v", err)
	}
	if second.Created {
		t.Fatal("retry reported a fresh box")
	}
	if len(second.Boxes) != 1 || second.Boxes[0].InstanceID != first.Boxes[0].InstanceID {
		t.Fatalf("retry boxes = %+v", second.Boxes)
	}
	if len(p.boxes) != 1 {
		t.Fatalf("provider holds %d boxes, want 1", len(p.boxes))
	}
}

func TestLifecycleCreateImageResolution(t *testing.T) {
	p := &fakeProvider{}
	lc, _, _ := newTestLifecycle(t, p)
	ctx := context.Background()

	// Literal references pass through under the custom alias.
	res, err := lc.Create(ctx, "alice", model.CreateBoxRequest{Image: "ghcr.io/acme/dev:latest", Name: "lit"})
	if err != nil {
		t.Fatalf("Create() literal error = %v", err)
	}
	if res.Boxes[0].ImageAlias != CustomImageAlias || res.Boxes[0].ImageID != "ghcr.io/acme/dev:latest" {
		t.Fatalf("literal create = %+v", res.Boxes[0])
	}

	// A bare word that is no stored alias is a conflict.
	_, err = lc.Create(ctx, "alice", model.CreateBoxRequest{Image: "nosuchalias"})
	if !model.IsConflict(err) {
		t.Fatalf("Create() unknown alias error = %v, want conflict", err)
	}

	// Empty image is invalid.
	_, err = lc.Create(ctx, "alice", model.CreateBoxRequest{})
	if !model.IsInvalid(err) {
		t.Fatalf("Create() empty image error = %v, want invalid", err)
	}
}

func TestLifecycleDeleteOwnership(t *testing.T) {
	p := &fakeProvider{}
	lc, _, _ := newTestLifecycle(t, p)
	ctx := context.Background()

	mine := seedBox(p, "alice", "mine", "", "", 60)
	theirs := seedBox(p, "bob", "theirs", "", "", 60)

	snap, err := lc.Delete(ctx, "alice", mine.InstanceID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if snap.Name != "mine" {
		t.Fatalf("Delete() snapshot = %+v", snap)
	}

	// Someone else's box and an absent box look the same.
	if _, err := lc.Delete(ctx, "alice", theirs.InstanceID); !model.IsNotFound(err) {
		t.Fatalf("Delete() foreign box error = %v, want not found", err)
	}
	if _, err := lc.Delete(ctx, "alice", "box-missing"); !model.IsNotFound(err) {
		t.Fatalf("Delete() missing box error = %v, want not found", err)
	}
	if len(p.terminated) != 1 {
		t.Fatalf("terminated = %v", p.terminated)
	}
}

func TestLifecycleReboot(t *testing.T) {
	p := &fakeProvider{}
	lc, _, _ := newTestLifecycle(t, p)
	ctx := context.Background()

	mine := seedBox(p, "alice", "mine", "", "", 60)

	if err := lc.Reboot(ctx, "alice", mine.InstanceID); err != nil {
		t.Fatalf("Reboot() error = %v", err)
	}
	if err := lc.Reboot(ctx, "bob", mine.InstanceID); !model.IsNotFound(err) {
		t.Fatalf("Reboot() foreign box error = %v, want not found", err)
	}
	if len(p.rebooted) != 1 || p.rebooted[0] != mine.InstanceID {
		t.Fatalf("rebooted = %v", p.rebooted)
	}
}

func TestReaperSweep(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	epoch := func(ageSecs int64) string {
		return strconv.FormatInt(now.Unix()-ageSecs, 10)
	}

	p := &fakeProvider{}
	fresh := seedBox(p, "alice", "fresh", "", epoch(100), 3600)
	expiredBox := seedBox(p, "alice", "old", "", epoch(5000), 3600)
	zeroTTL := seedBox(p, "bob", "zero", "", epoch(1), 0)
	noStamp := seedBox(p, "bob", "nostamp", "", "", 3600)

	r := NewReaper(p, NewDirectory(p), lifecycle.NewDrainManager())
	r.now = func() time.Time { return now }

	reaped, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	got := map[string]bool{}
	for _, b := range reaped {
		got[b.InstanceID] = true
	}
	if got[fresh.InstanceID] {
		t.Fatal("fresh box reaped")
	}
	for _, id := range []string{expiredBox.InstanceID, zeroTTL.InstanceID, noStamp.InstanceID} {
		if !got[id] {
			t.Fatalf("box %s not reaped; reaped = %+v", id, reaped)
		}
	}
}

func TestReaperSweepBestEffort(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := &fakeProvider{failTerminate: map[string]bool{}}
	stuck := seedBox(p, "alice", "stuck", "", "", 0)
	ok := seedBox(p, "alice", "zz-ok", "", "", 0)
	p.failTerminate[stuck.InstanceID] = true

	r := NewReaper(p, NewDirectory(p), lifecycle.NewDrainManager())
	r.now = func() time.Time { return now }

	reaped, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(reaped) != 1 || reaped[0].InstanceID != ok.InstanceID {
		t.Fatalf("Sweep() reaped = %+v", reaped)
	}
}

func TestErrorKinds(t *testing.T) {
	err := model.Errorf(model.ErrNotFound, "no box %q", "box-1")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatal("wrapped kind not matchable")
	}
	if err.Error() != `no box "box-1": not found` {
		t.Fatalf("Error() = %q", err.Error())
	}
}
