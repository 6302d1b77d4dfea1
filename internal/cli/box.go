package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boxfleet/boxfleet/internal/model"
)

var (
	nameFlag         string
	instanceTypeFlag string
	ttlFlag          int64
	connectFlag      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your boxes",
	Example: `  # List boxes as INI sections
  boxfleet list

  # List as JSON
  boxfleet list --output json`,
	RunE: runList,
}

var createCmd = &cobra.Command{
	Use:   "create <image-alias-or-ref>",
	Short: "Create a box",
	Long: `Create a box from one of your image aliases or a literal image
reference. Creating a box whose name already exists returns the existing
boxes instead of failing.`,
	Args: cobra.ExactArgs(1),
	Example: `  # Create from an alias with defaults
  boxfleet create ubuntu24

  # Create with a name, a bigger type, and a day of ttl
  boxfleet create ubuntu24 --name scratch --instance-type t3.large --ttl 86400`,
	RunE: runCreate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <glob>",
	Short: "Delete every box matching a glob",
	Args:  cobra.ExactArgs(1),
	Example: `  # Delete one box by name
  boxfleet delete scratch

  # Delete everything built from the ubuntu24 alias
  boxfleet delete 'ubuntu24'`,
	RunE: runDelete,
}

var rebootCmd = &cobra.Command{
	Use:   "reboot <glob>",
	Short: "Reboot the first box matching a glob",
	Args:  cobra.ExactArgs(1),
	RunE:  runReboot,
}

func init() {
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Box name (default: boxfleet-<owner>-<alias>)")
	createCmd.Flags().StringVar(&instanceTypeFlag, "instance-type", "", "Instance type")
	createCmd.Flags().Int64Var(&ttlFlag, "ttl", 0, "Time to live in seconds (default: 4h)")
	createCmd.Flags().BoolVar(&connectFlag, "connect", false, "Open the companion connect ports")

	rootCmd.AddCommand(listCmd, createCmd, deleteCmd, rebootCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx, cancel := getContext()
	defer cancel()

	boxes, err := c.ListBoxes(ctx)
	if err != nil {
		return err
	}
	return writeBoxes(boxes)
}

func runCreate(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx, cancel := getContext()
	defer cancel()

	boxes, created, err := c.CreateBox(ctx, model.CreateBoxRequest{
		Image:        args[0],
		Name:         nameFlag,
		InstanceType: instanceTypeFlag,
		TTL:          ttlFlag,
		Connect:      connectFlag,
	})
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintln(os.Stderr, "box already exists, returning it")
	}
	return writeBoxes(boxes)
}

func runDelete(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx, cancel := getContext()
	defer cancel()

	boxes, err := c.ListBoxes(ctx)
	if err != nil {
		return err
	}
	matched, err := matchBoxes(boxes, args[0])
	if err != nil {
		return err
	}

	for _, b := range matched {
		if err := c.DeleteBox(ctx, b.InstanceID); err != nil {
			return fmt.Errorf("failed to delete %s (%s): %w", b.Name, b.InstanceID, err)
		}
		fmt.Fprintf(os.Stderr, "deleted %s (%s)\n", b.Name, b.InstanceID)
	}
	return nil
}

func runReboot(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx, cancel := getContext()
	defer cancel()

	boxes, err := c.ListBoxes(ctx)
	if err != nil {
		return err
	}
	matched, err := matchBoxes(boxes, args[0])
	if err != nil {
		return err
	}

	box := matched[0]
	if err := c.RebootBox(ctx, box.InstanceID); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "rebooted %s (%s)\n", box.Name, box.InstanceID)
	return nil
}
