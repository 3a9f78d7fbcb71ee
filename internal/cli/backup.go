package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/billvault/internal/backup"
)

func (r *runner) exportCommand() *cobra.Command {
	var (
		outPath  string
		snapshot bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every property, entry and setting as a backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if snapshot {
				name, err := backup.Backup(cmd.Context(), r.app.Store, r.app.Sink, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "backup written: %s\n", name)
				return nil
			}

			data, err := r.app.Store.Export()
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(outPath, data, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "file to write (default: stdout)")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "write to the configured backup directory or bucket")
	cmd.MarkFlagsMutuallyExclusive("out", "snapshot")
	return cmd
}

func (r *runner) importCommand() *cobra.Command {
	var (
		snapshot string
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace all data with the contents of a backup file",
		Args: func(cmd *cobra.Command, args []string) error {
			if snapshot != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(r.reader, cmd.OutOrStdout(), "Replace all current data?") {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}

			if snapshot != "" {
				if err := backup.Restore(cmd.Context(), r.app.Store, r.app.Sink, snapshot); err != nil {
					return err
				}
			} else {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", args[0], err)
				}
				if err := r.app.Store.Import(cmd.Context(), data); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d properties\n", len(r.app.Store.Vaults()))
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "restore this backup name from the configured backup directory or bucket")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
