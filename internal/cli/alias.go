package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/boxfleet/boxfleet/internal/model"
	"github.com/boxfleet/boxfleet/internal/output"
)

var listAliasesCmd = &cobra.Command{
	Use:   "list-aliases",
	Short: "List your image aliases",
	RunE:  runListAliases,
}

var createAliasCmd = &cobra.Command{
	Use:   "create-alias <alias> <image-ref>",
	Short: "Register an image alias",
	Args:  cobra.ExactArgs(2),
	Example: `  boxfleet create-alias ubuntu24 docker.io/library/ubuntu:24.04`,
	RunE:  runCreateAlias,
}

var deleteAliasCmd = &cobra.Command{
	Use:   "delete-alias <alias>",
	Short: "Delete an image alias",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteAlias,
}

func init() {
	rootCmd.AddCommand(listAliasesCmd, createAliasCmd, deleteAliasCmd)
}

func writeAliases(w io.Writer, aliases map[string]string) error {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]model.KV, 0, len(names))
	for _, name := range names {
		fields = append(fields, model.KV{Key: name, Value: aliases[name]})
	}
	doc := output.Document{
		Sections: []output.Section{{Name: "image_aliases", Fields: fields}},
		Raw:      model.AliasListResponse{ImageAliases: aliases},
	}
	return output.NewFormatter(output.ParseFormat(outputFormat)).Write(w, doc)
}

func runListAliases(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx, cancel := getContext()
	defer cancel()

	aliases, err := c.ListImageAliases(ctx)
	if err != nil {
		return err
	}
	return writeAliases(os.Stdout, aliases)
}

func runCreateAlias(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx, cancel := getContext()
	defer cancel()

	if err := c.CreateImageAlias(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "created alias %s -> %s\n", args[0], args[1])
	return nil
}

func runDeleteAlias(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx, cancel := getContext()
	defer cancel()

	if err := c.DeleteImageAlias(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "deleted alias %s\n", args[0])
	return nil
}
