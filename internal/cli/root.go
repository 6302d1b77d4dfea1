// Package cli implements the boxfleet command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boxfleet/boxfleet/internal/model"
	"github.com/boxfleet/boxfleet/internal/output"
	"github.com/boxfleet/boxfleet/pkg/client"
)

// Exit codes: 0 success, 86 handled failure, 2 usage error.
const (
	ExitOK      = 0
	ExitUsage   = 2
	ExitFailure = 86
)

var errMissingSubcommand = errors.New("a subcommand is required")

// exitCodeError carries an explicit exit code out of a command (used by ssh
// and scp to propagate the child process's status).
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "boxfleet",
	Short: "boxfleet - manage short-lived cloud boxes",
	Long: `boxfleet manages a small fleet of short-lived boxes: create them from
image aliases, find them, ssh into them, and let the reaper take them away
when their ttl runs out.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = cmd.Help()
		return errMissingSubcommand
	},
}

// Execute runs the CLI and returns the process exit code.
func Execute(version string) int {
	rootCmd.Version = version
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}

	var exitErr exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	if errors.Is(err, errMissingSubcommand) {
		return ExitUsage
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return ExitFailure
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default: ~/.config/boxfleet/config.yaml)")
	rootCmd.PersistentFlags().StringP("url", "u", "", "Server URL (env: BOXFLEET_URL)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "ini", "Output format: ini, json, yaml, table")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Request timeout")

	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home + "/.config/boxfleet")
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("BOXFLEET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func getClient() (*client.Client, error) {
	credentials := viper.GetString("credentials")
	if credentials == "" {
		var err error
		credentials, err = promptCredentials()
		if err != nil {
			return nil, err
		}
	}
	return client.New(
		viper.GetString("url"),
		credentials,
		client.WithTimeout(viper.GetDuration("timeout")),
	)
}

func getContext() (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("timeout")
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// writeBoxes renders a box set in the selected output format.
func writeBoxes(boxes []model.Box) error {
	now := time.Now()
	sections := make([]output.Section, 0, len(boxes))
	for _, b := range boxes {
		sections = append(sections, output.Section{Name: b.Name, Fields: b.Record(now)})
	}
	doc := output.Document{
		Sections: sections,
		Raw:      model.BoxListResponse{Boxes: boxes},
	}
	return output.NewFormatter(output.ParseFormat(outputFormat)).Write(os.Stdout, doc)
}

// matchBoxes filters a box set by glob over name or image alias, mirroring
// the server's directory matching.
func matchBoxes(boxes []model.Box, pattern string) ([]model.Box, error) {
	var matched []model.Box
	for _, b := range boxes {
		ok, err := path.Match(pattern, b.Name)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if !ok && b.ImageAlias != "" {
			ok, _ = path.Match(pattern, b.ImageAlias)
		}
		if ok {
			matched = append(matched, b)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("no box matching %q", pattern)
	}
	return matched, nil
}
