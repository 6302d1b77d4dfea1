package compute

import "strings"

// sizeProfile maps an instance type to pod resource limits.
type sizeProfile struct {
	CPU    string
	Memory string
}

// DefaultInstanceType is used when a create request names no type.
const DefaultInstanceType = "t3.small"

// Longest matching prefix wins, so exact names take priority over family
// defaults. Anything unmatched falls back to the default type's profile.
var sizeProfiles = []struct {
	Prefix  string
	Profile sizeProfile
}{
	{"t2.small", sizeProfile{CPU: "250m", Memory: "512Mi"}},
	{"t2", sizeProfile{CPU: "250m", Memory: "512Mi"}},
	{"t3.micro", sizeProfile{CPU: "250m", Memory: "256Mi"}},
	{"t3.small", sizeProfile{CPU: "500m", Memory: "512Mi"}},
	{"t3.medium", sizeProfile{CPU: "1", Memory: "1Gi"}},
	{"t3.large", sizeProfile{CPU: "2", Memory: "2Gi"}},
	{"t3.xlarge", sizeProfile{CPU: "4", Memory: "4Gi"}},
	{"t3", sizeProfile{CPU: "500m", Memory: "512Mi"}},
	{"m5", sizeProfile{CPU: "2", Memory: "8Gi"}},
	{"c5", sizeProfile{CPU: "4", Memory: "8Gi"}},
	{"r5", sizeProfile{CPU: "2", Memory: "16Gi"}},
}

// Per-image-family default instance types, matched by alias prefix. Older
// distro images get a smaller burstable type.
var aliasInstanceTypes = []struct {
	Prefix string
	Type   string
}{
	{"centos6", "t2.small"},
	{"rhel6", "t2.small"},
	{"sles12", "t2.small"},
}

// InstanceTypeForAlias picks the instance type for an image alias when the
// create request names none.
func InstanceTypeForAlias(alias string) string {
	a := strings.ToLower(alias)
	typ := DefaultInstanceType
	bestLen := 0
	for _, entry := range aliasInstanceTypes {
		if len(entry.Prefix) > bestLen && strings.HasPrefix(a, entry.Prefix) {
			typ = entry.Type
			bestLen = len(entry.Prefix)
		}
	}
	return typ
}

func profileFor(t string) sizeProfile {
	best := -1
	bestLen := 0
	for i, entry := range sizeProfiles {
		if len(entry.Prefix) > bestLen && strings.HasPrefix(t, entry.Prefix) {
			best = i
			bestLen = len(entry.Prefix)
		}
	}
	if best >= 0 {
		return sizeProfiles[best].Profile
	}
	return profileFor(DefaultInstanceType)
}
