package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptCredentials asks for the owner and token on the terminal when no
// credential is configured. The token is read with hidden input.
func promptCredentials() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no credentials configured; set BOXFLEET_CREDENTIALS or the credentials config key")
	}
	return readCredentials(os.Stdin)
}

func readCredentials(in io.Reader) (string, error) {
	reader := bufio.NewReader(in)

	fmt.Print("Owner: ")
	owner, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read owner: %w", err)
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", fmt.Errorf("owner cannot be empty")
	}

	// Hidden input only when stdin is the terminal.
	fmt.Print("Token: ")
	var token string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tokenBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		token = string(tokenBytes)
	} else {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}

	return owner + ":" + token, nil
}
