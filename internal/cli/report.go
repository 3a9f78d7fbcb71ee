package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/billvault/internal/calculator"
	"github.com/mmynk/billvault/internal/report"
)

func (r *runner) reportInput(entryID string) (report.Input, error) {
	ref, err := r.app.Store.Entry(entryID)
	if err != nil {
		return report.Input{}, err
	}
	return report.Input{
		VaultName:   ref.VaultName,
		Entry:       ref.Entry,
		PortalURL:   r.app.Orchestrator.PortalURL(ref.Entry),
		GeneratedAt: time.Now(),
	}, nil
}

func (r *runner) pdfCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "pdf <entry-id>",
		Short: "Render an entry's bill as a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := r.reportInput(args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = "bill-" + in.Entry.ServiceID + ".pdf"
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			if err := report.WritePDF(f, in, report.PDFOptions{}); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "file to write (default: bill-<uksc>.pdf)")
	return cmd
}

func (r *runner) shareCommand() *cobra.Command {
	var phone string
	cmd := &cobra.Command{
		Use:   "share <entry-id>",
		Short: "Print a WhatsApp link that sends the bill to the occupant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := r.reportInput(args[0])
			if err != nil {
				return err
			}
			if phone == "" {
				phone = in.Entry.Phone
			}
			link, err := report.ShareLink(in, phone, r.app.Config.Share.CountryCode)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "send to this number instead of the entry's phone")
	return cmd
}

func (r *runner) duesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dues",
		Short: "Summarize unpaid bills per property",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := calculator.CalculateDues(r.app.Store.Vaults())
			out := cmd.OutOrStdout()
			for _, v := range d.Vaults {
				fmt.Fprintf(out, "%s: %d unpaid, %d paid, %d without data, outstanding %s%s\n",
					v.VaultName, v.Unpaid, v.Paid, v.NoData, formatAmount(v.Outstanding), unparsedNote(v.Unparsed))
			}
			fmt.Fprintf(out, "total outstanding %s%s\n", formatAmount(d.Outstanding), unparsedNote(d.Unparsed))
			return nil
		},
	}
}

func formatAmount(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

func unparsedNote(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(" (+%d unreadable)", n)
}
