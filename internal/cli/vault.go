package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/billvault/internal/models"
)

func (r *runner) vaultCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage properties",
	}

	var category string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := models.ParseCategory(category)
			if err != nil {
				return err
			}
			v, err := r.app.Store.CreateVault(cmd.Context(), args[0], cat)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", v.Name, v.ID)
			return nil
		},
	}
	create.Flags().StringVar(&category, "category", "single", "single or multi")

	list := &cobra.Command{
		Use:   "list",
		Short: "List properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tENTRIES")
			for _, v := range r.app.Store.Vaults() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", v.ID, v.Name, v.Category, len(v.Entries))
			}
			return tw.Flush()
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete <vault-id>",
		Short: "Delete a property and all of its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := r.app.Store.Vault(args[0])
			if err != nil {
				return err
			}
			prompt := fmt.Sprintf("Delete %q and its %d entries?", v.Name, len(v.Entries))
			if !yes && !confirm(r.reader, cmd.OutOrStdout(), prompt) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			if err := r.app.Store.DeleteVault(cmd.Context(), v.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", v.Name)
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	cmd.AddCommand(create, list, del)
	return cmd
}
