package model

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// AgeUnknown is rendered when a box has no parsable created-at stamp.
const AgeUnknown = "?"

// PendingAddress is the sentinel rendered for a box whose public address has
// not been assigned by the provider yet.
const PendingAddress = "(pending)"

// Box is one live (or just-created) compute instance tracked by the fleet.
// All fields besides Tags are immutable once the provider has acknowledged
// creation; reboot changes provider-side state only.
type Box struct {
	InstanceID    string            `json:"instance_id"`
	User          string            `json:"user,omitempty"`
	Name          string            `json:"name,omitempty"`
	ImageAlias    string            `json:"image_alias,omitempty"`
	ImageID       string            `json:"image_id,omitempty"`
	InstanceType  string            `json:"instance_type,omitempty"`
	PublicDNSName string            `json:"public_dns_name,omitempty"`
	PublicIP      string            `json:"public_ip,omitempty"`
	CreatedAt     string            `json:"created_at,omitempty"`
	TTL           int64             `json:"ttl,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`

	// Age is derived; populated by WithAge just before serialization.
	Age string `json:"age,omitempty"`
}

// AgeAt computes the box age relative to now, formatted as a compact
// "DdHhMmSs" string. A missing or unparsable created-at stamp yields
// AgeUnknown, never an error.
func (b Box) AgeAt(now time.Time) string {
	if b.CreatedAt == "" {
		return AgeUnknown
	}
	epoch, err := strconv.ParseFloat(b.CreatedAt, 64)
	if err != nil {
		return AgeUnknown
	}
	delta := now.Unix() - int64(epoch)
	if delta < 0 {
		delta = 0
	}
	days := delta / 86400
	rem := delta % 86400
	hours := rem / 3600
	rem %= 3600
	return fmt.Sprintf("%dd%dh%dm%ds", days, hours, rem/60, rem%60)
}

// AgeSeconds returns the age in whole seconds and whether created-at was
// parsable at all. The reaper compares this against TTL.
func (b Box) AgeSeconds(now time.Time) (int64, bool) {
	if b.CreatedAt == "" {
		return 0, false
	}
	epoch, err := strconv.ParseFloat(b.CreatedAt, 64)
	if err != nil {
		return 0, false
	}
	return now.Unix() - int64(epoch), true
}

// WithAge returns a copy with the derived Age field populated.
func (b Box) WithAge(now time.Time) Box {
	b.Age = b.AgeAt(now)
	return b
}

// Record flattens the box into sorted key/value pairs for textual rendering.
// Unset fields are omitted; public_ip falls back to the pending sentinel.
func (b Box) Record(now time.Time) []KV {
	fields := map[string]string{
		"instance_id":     b.InstanceID,
		"user":            b.User,
		"name":            b.Name,
		"image_alias":     b.ImageAlias,
		"image_id":        b.ImageID,
		"instance_type":   b.InstanceType,
		"public_dns_name": b.PublicDNSName,
		"public_ip":       b.PublicIP,
		"created_at":      b.CreatedAt,
		"age":             b.AgeAt(now),
	}
	if b.PublicIP == "" {
		fields["public_ip"] = PendingAddress
	}
	if b.TTL != 0 {
		fields["ttl"] = strconv.FormatInt(b.TTL, 10)
	}
	for k, v := range b.Tags {
		fields[k] = v
	}

	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	record := make([]KV, 0, len(keys))
	for _, k := range keys {
		record = append(record, KV{Key: k, Value: fields[k]})
	}
	return record
}

// KV is one key/value pair of a rendered box record.
type KV struct {
	Key   string
	Value string
}

// Address returns the preferred remote address for ssh/scp, favoring the
// DNS name over the raw IP.
func (b Box) Address() string {
	if b.PublicDNSName != "" {
		return b.PublicDNSName
	}
	return b.PublicIP
}

// BoxListResponse is the wire shape of every endpoint that returns boxes.
type BoxListResponse struct {
	Boxes []Box `json:"boxes"`
}
