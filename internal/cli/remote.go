package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boxfleet/boxfleet/internal/model"
	"github.com/boxfleet/boxfleet/internal/sshcmd"
)

var sshCmd = &cobra.Command{
	Use:   "ssh <glob> [-- ssh-args...]",
	Short: "SSH into the first box matching a glob",
	Args:  cobra.MinimumNArgs(1),
	Example: `  # Open a shell
  boxfleet ssh ubuntu24

  # Run a command
  boxfleet ssh scratch -- uptime`,
	RunE: runSSH,
}

var scpCmd = &cobra.Command{
	Use:   "scp <glob> [-- scp-args...]",
	Short: "Copy files to or from the first box matching a glob",
	Long: `Copy files with scp. Use the __BOX__ placeholder where the box
address belongs; the guessed login is prepended unless the argument already
names a user.`,
	Args: cobra.MinimumNArgs(1),
	Example: `  # Push a file
  boxfleet scp scratch -- local.txt __BOX__:/tmp/

  # Pull as root
  boxfleet scp scratch -- root@__BOX__:/var/log/syslog .`,
	RunE: runSCP,
}

func init() {
	rootCmd.AddCommand(sshCmd, scpCmd)
}

func resolveRemoteBox(pattern string) (*model.Box, error) {
	c, err := getClient()
	if err != nil {
		return nil, err
	}
	ctx, cancel := getContext()
	defer cancel()

	boxes, err := c.ListBoxes(ctx)
	if err != nil {
		return nil, err
	}
	matched, err := matchBoxes(boxes, pattern)
	if err != nil {
		return nil, err
	}

	box := matched[0]
	if box.Address() == "" {
		return nil, fmt.Errorf("box %s has no address yet", box.Name)
	}
	return &box, nil
}

func runSSH(cmd *cobra.Command, args []string) error {
	box, err := resolveRemoteBox(args[0])
	if err != nil {
		return err
	}

	builder := sshcmd.Builder{Login: viper.GetString("ssh-login")}
	return runExternal(builder.SSHCommand(*box, args[1:]))
}

func runSCP(cmd *cobra.Command, args []string) error {
	box, err := resolveRemoteBox(args[0])
	if err != nil {
		return err
	}

	builder := sshcmd.Builder{Login: viper.GetString("ssh-login")}
	return runExternal(builder.SCPCommand(*box, args[1:]))
}

// runExternal runs the built command with inherited stdio and propagates
// the child's exit code.
func runExternal(argv []string) error {
	child := exec.Command(argv[0], argv[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	err := child.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitCodeError{code: exitErr.ExitCode()}
	}
	return err
}
