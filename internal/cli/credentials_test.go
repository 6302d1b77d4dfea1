package cli

import (
	"strings"
	"testing"
)

func TestReadCredentials(t *testing.T) {
	creds, err := readCredentials(strings.NewReader("alice\nsekret\n"))
	if err != nil {
		t.Fatalf("readCredentials() error = %v", err)
	}
	if creds != "alice:sekret" {
		t.Fatalf("readCredentials() = %q, want alice:sekret", creds)
	}

	if _, err := readCredentials(strings.NewReader("\nsekret\n")); err == nil {
		t.Fatal("readCredentials() accepted an empty owner")
	}
	if _, err := readCredentials(strings.NewReader("alice\n\n")); err == nil {
		t.Fatal("readCredentials() accepted an empty token")
	}
}
