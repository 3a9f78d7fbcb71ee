package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/billvault/internal/models"
)

func (r *runner) refreshCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "refresh [entry-id]",
		Short: "Fetch the current bill of one entry, or of every entry with --all",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				refs := r.app.Store.AllEntries()
				if !r.app.Loop.RunNow(cmd.Context()) {
					return fmt.Errorf("a refresh of every entry is already running")
				}
				ids := make([]string, len(refs))
				for i, ref := range refs {
					ids[i] = ref.Entry.ID
				}
				r.printStatuses(out, ids)
				return nil
			}

			ref, err := r.app.Store.Entry(args[0])
			if err != nil {
				return err
			}
			err = r.app.Orchestrator.Refresh(cmd.Context(), ref.Entry.ID)
			r.printStatuses(out, []string{ref.Entry.ID})
			if err != nil {
				return fmt.Errorf("refresh %s: %s", ref.Entry.ServiceID, models.ErrorKind(err))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "refresh every entry, pausing between portal requests")
	return cmd
}
