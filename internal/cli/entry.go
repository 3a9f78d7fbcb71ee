package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/billvault/internal/models"
)

// refreshConcurrency bounds the refreshes run after an add.
const refreshConcurrency = 4

func (r *runner) resolveVault(id string) (models.Vault, error) {
	if id != "" {
		return r.app.Store.Vault(id)
	}
	v, ok := r.app.Store.Selected()
	if !ok {
		return models.Vault{}, fmt.Errorf("%w: no property exists yet, create one with 'vault create'", models.ErrValidation)
	}
	return v, nil
}

func (r *runner) entryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Manage service entries",
	}
	cmd.AddCommand(r.entryAddCommand(), r.entryListCommand(), r.entryEditCommand(), r.entryDeleteCommand())
	return cmd
}

func (r *runner) entryAddCommand() *cobra.Command {
	var (
		vaultID   string
		noRefresh bool
	)
	cmd := &cobra.Command{
		Use:   "add <uksc>...",
		Short: "Add service numbers to a property and fetch their bills",
		Long: "Add service numbers to a property. Arguments may themselves hold several\n" +
			"numbers separated by commas. Numbers already tracked anywhere are skipped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := r.resolveVault(vaultID)
			if err != nil {
				return err
			}
			res, err := r.app.Store.AddEntries(cmd.Context(), v.ID, strings.Join(args, "\n"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range res.Created {
				fmt.Fprintf(out, "added %s as %q (%s)\n", e.ServiceID, e.Nickname, e.ID)
			}
			if len(res.Duplicates) > 0 {
				fmt.Fprintf(out, "skipped, already tracked: %s\n", strings.Join(res.Duplicates, ", "))
			}
			if len(res.Created) == 0 {
				return res.Err()
			}
			if noRefresh {
				return nil
			}

			ids := make([]string, len(res.Created))
			for i, e := range res.Created {
				ids[i] = e.ID
			}
			r.refreshAll(cmd.Context(), ids)
			r.printStatuses(out, ids)
			return nil
		},
	}
	cmd.Flags().StringVar(&vaultID, "vault", "", "property id (default: the first property)")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "do not fetch bills for the new entries")
	return cmd
}

// refreshAll refreshes ids concurrently and waits for all of them. Failures
// are recorded on the status board.
func (r *runner) refreshAll(ctx context.Context, ids []string) {
	var g errgroup.Group
	g.SetLimit(refreshConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			_ = r.app.Orchestrator.Refresh(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *runner) printStatuses(w io.Writer, ids []string) {
	board := r.app.Orchestrator.Board()
	for _, id := range ids {
		ref, err := r.app.Store.Entry(id)
		if err != nil {
			continue
		}
		sid := ref.Entry.ServiceID
		switch st := board.State(ref.Entry).(type) {
		case models.LastAttemptFailed:
			fmt.Fprintf(w, "%s: refresh failed (%s): %v\n", sid, models.ErrorKind(st.Err), st.Err)
			if b := st.Previous; b != nil {
				fmt.Fprintf(w, "%s: last known %s, %s due %s\n", sid, b.Status, b.Amount, b.DueDate)
			}
		case models.Snapshot:
			fmt.Fprintf(w, "%s: %s, %s due %s\n", sid, st.Bill.Status, st.Bill.Amount, st.Bill.DueDate)
		case models.NoSnapshotYet:
			fmt.Fprintf(w, "%s: no bill yet\n", sid)
		}
	}
}

func (r *runner) entryListCommand() *cobra.Command {
	var vaultID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the entries of a property with their last bill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := r.resolveVault(vaultID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", v.Name, v.Category)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUKSC\tNICKNAME\tOCCUPANT\tAMOUNT\tDUE\tSTATUS\tFETCHED")
			for _, e := range v.Entries {
				amount, due, status, fetched := "-", "-", "no data", "never"
				if b := e.Bill; b != nil {
					amount, due, status = b.Amount, b.DueDate, b.Status
					fetched = b.LastFetched.Local().Format("02 Jan 15:04")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.ServiceID, e.Nickname, e.Occupant, amount, due, status, fetched)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&vaultID, "vault", "", "property id (default: the first property)")
	return cmd
}

func (r *runner) entryEditCommand() *cobra.Command {
	var serviceID, nickname, occupant, unit, phone, overrideURL string
	cmd := &cobra.Command{
		Use:   "edit <entry-id>",
		Short: "Change an entry's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := r.app.Store.Entry(args[0])
			if err != nil {
				return err
			}
			e := ref.Entry
			flags := cmd.Flags()
			if flags.Changed("uksc") {
				e.ServiceID = serviceID
			}
			if flags.Changed("nickname") {
				e.Nickname = nickname
			}
			if flags.Changed("occupant") {
				e.Occupant = occupant
			}
			if flags.Changed("unit") {
				e.Unit = unit
			}
			if flags.Changed("phone") {
				e.Phone = phone
			}
			if flags.Changed("url") {
				e.OverrideURL = overrideURL
			}

			updated, err := r.app.Store.UpdateEntry(cmd.Context(), e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", updated.Nickname, updated.ServiceID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&serviceID, "uksc", "", "service number, unique across all properties")
	f.StringVar(&nickname, "nickname", "", "display name, empty for the default")
	f.StringVar(&occupant, "occupant", "", "occupant name")
	f.StringVar(&unit, "unit", "", "unit or flat number")
	f.StringVar(&phone, "phone", "", "occupant phone number for share links")
	f.StringVar(&overrideURL, "url", "", "portal URL for this entry, may contain {UKSC}")
	return cmd
}

func (r *runner) entryDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Stop tracking a service number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := r.app.Store.Entry(args[0])
			if err != nil {
				return err
			}
			prompt := fmt.Sprintf("Delete %q (%s) from %s?", ref.Entry.Nickname, ref.Entry.ServiceID, ref.VaultName)
			if !yes && !confirm(r.reader, cmd.OutOrStdout(), prompt) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			if err := r.app.Store.DeleteEntry(cmd.Context(), ref.Entry.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", ref.Entry.ServiceID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
