// Package sshcmd builds argument vectors for the external ssh and scp
// binaries. It never executes anything itself.
package sshcmd

import (
	"strings"

	"github.com/boxfleet/boxfleet/internal/model"
)

// BoxPlaceholder marks where scp arguments want the box address.
const BoxPlaceholder = "__BOX__"

// HostKeyPolicy decides whether the built commands disable host key
// verification. Boxes are short-lived and get fresh host keys on every
// create, so TrustAny is the default; Verify leaves ssh's own checking on.
type HostKeyPolicy int

const (
	HostKeyTrustAny HostKeyPolicy = iota
	HostKeyVerify
)

// DefaultLogin is used when no alias prefix rule matches.
const DefaultLogin = "ec2-user"

// Ordered prefix rules over the box's image alias. An empty login means the
// default applies.
var loginRules = []struct {
	Prefix string
	Login  string
}{
	{"centos", "centos"},
	{"rhel", ""},
	{"sles", ""},
	{"suse", ""},
	{"ubuntu", "ubuntu"},
}

// Builder assembles ssh/scp argv slices for one configuration.
type Builder struct {
	Login  string // overrides the per-alias guess when set
	Policy HostKeyPolicy
}

// GuessLogin picks the remote login for a box from its image alias.
func (b Builder) GuessLogin(box model.Box) string {
	if b.Login != "" {
		return b.Login
	}
	alias := strings.ToLower(box.ImageAlias)
	for _, rule := range loginRules {
		if strings.HasPrefix(alias, rule.Prefix) {
			if rule.Login == "" {
				return DefaultLogin
			}
			return rule.Login
		}
	}
	return DefaultLogin
}

// SSHCommand builds the argv for `ssh` into the box. A `-l <login>` pair is
// inserted unless the caller supplied one.
func (b Builder) SSHCommand(box model.Box, args []string) []string {
	argv := []string{"ssh", box.Address()}
	argv = append(argv, b.hostKeyArgs(args)...)
	if !hasFlag(args, "-l") {
		argv = append(argv, "-l", b.GuessLogin(box))
	}
	return append(argv, args...)
}

// SCPCommand builds the argv for `scp`, replacing the box placeholder in
// each argument with `<login>@<address>` (the login is skipped when the
// placeholder already carries one).
func (b Builder) SCPCommand(box model.Box, args []string) []string {
	argv := []string{"scp"}
	argv = append(argv, b.hostKeyArgs(args)...)

	target := b.GuessLogin(box) + "@" + box.Address()
	for _, arg := range args {
		if strings.Contains(arg, BoxPlaceholder) {
			replacement := target
			if strings.Contains(arg, "@") {
				replacement = box.Address()
			}
			arg = strings.ReplaceAll(arg, BoxPlaceholder, replacement)
		}
		argv = append(argv, arg)
	}
	return argv
}

// hostKeyArgs returns the option pairs that silence host key verification,
// unless the policy keeps it on or the caller already set equivalent flags.
func (b Builder) hostKeyArgs(args []string) []string {
	if b.Policy == HostKeyVerify {
		return nil
	}
	joined := strings.ToLower(strings.Join(args, " "))
	var out []string
	if !strings.Contains(joined, "stricthostkeychecking") {
		out = append(out, "-o", "StrictHostKeyChecking=no")
	}
	if !strings.Contains(joined, "userknownhostsfile") {
		out = append(out, "-o", "UserKnownHostsFile=/dev/null")
	}
	return out
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}
