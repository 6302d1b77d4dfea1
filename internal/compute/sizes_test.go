package compute

import "testing"

func TestInstanceTypeForAlias(t *testing.T) {
	tests := []struct {
		alias string
		want  string
	}{
		{"centos6", "t2.small"},
		{"rhel6", "t2.small"},
		{"sles12", "t2.small"},
		{"sles12sp5", "t2.small"},
		{"SLES12", "t2.small"},
		{"ubuntu24", DefaultInstanceType},
		{"custom", DefaultInstanceType},
		{"", DefaultInstanceType},
	}
	for _, tt := range tests {
		if got := InstanceTypeForAlias(tt.alias); got != tt.want {
			t.Errorf("InstanceTypeForAlias(%q) = %q, want %q", tt.alias, got, tt.want)
		}
	}
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		instanceType string
		wantCPU      string
	}{
		{"t3.small", "500m"},
		{"t3.xlarge", "4"},
		{"t2.small", "250m"},
		{"t3.nano", "500m"}, // family fallback
		{"z9.huge", "500m"}, // unknown falls back to the default type
	}
	for _, tt := range tests {
		if got := profileFor(tt.instanceType); got.CPU != tt.wantCPU {
			t.Errorf("profileFor(%q).CPU = %q, want %q", tt.instanceType, got.CPU, tt.wantCPU)
		}
	}
}
