package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/billvault/internal/models"
)

func (r *runner) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the extraction key and refresh schedule",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := r.app.Store.Settings()
			out := cmd.OutOrStdout()
			key := "not set"
			if s.APIKey != "" {
				key = "set"
			}
			fmt.Fprintf(out, "api key:  %s\n", key)
			if s.RefreshSchedule.Enabled {
				fmt.Fprintf(out, "schedule: every %d %s\n", s.RefreshSchedule.Value, s.RefreshSchedule.Unit)
			} else {
				fmt.Fprintln(out, "schedule: disabled")
			}
			return nil
		},
	}

	var clearKey bool
	setKey := &cobra.Command{
		Use:   "set-key",
		Short: "Store the extraction API key, read from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := r.app.Store.Settings()
			if clearKey {
				s.APIKey = ""
			} else {
				key, err := readSecret(r.env.In, r.reader, cmd.OutOrStdout(), "API key: ")
				if err != nil {
					return fmt.Errorf("failed to read key: %w", err)
				}
				if key == "" {
					return fmt.Errorf("%w: empty key, use --clear to remove it", models.ErrValidation)
				}
				s.APIKey = key
			}
			if err := r.app.Store.UpdateSettings(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "api key updated")
			return nil
		},
	}
	setKey.Flags().BoolVar(&clearKey, "clear", false, "remove the stored key")

	var (
		every   int
		unit    string
		disable bool
	)
	sched := &cobra.Command{
		Use:   "schedule",
		Short: "Set the automatic refresh interval",
		Example: "  billvault settings schedule --every 12 --unit hours\n" +
			"  billvault settings schedule --disable",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := r.app.Store.Settings()
			if disable {
				s.RefreshSchedule.Enabled = false
			} else {
				s.RefreshSchedule = models.RefreshSchedule{
					Enabled: true,
					Value:   every,
					Unit:    models.TimeUnit(unit),
				}
			}
			if err := r.app.Store.UpdateSettings(cmd.Context(), s); err != nil {
				return err
			}
			if disable {
				fmt.Fprintln(cmd.OutOrStdout(), "schedule disabled")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "schedule: every %d %s\n", every, unit)
			}
			return nil
		},
	}
	sched.Flags().IntVar(&every, "every", 1, "interval value")
	sched.Flags().StringVar(&unit, "unit", string(models.UnitDays), "minutes, hours, days, weeks, months or years")
	sched.Flags().BoolVar(&disable, "disable", false, "turn scheduled refresh off")

	cmd.AddCommand(show, setKey, sched)
	return cmd
}
