package cli

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/billvault/internal/app"
)

// Env is what the commands run against.
type Env struct {
	// Open wires the application. It is called once per invocation, only
	// for commands that need the store.
	Open func(ctx context.Context) (*app.App, error)
	In   io.Reader
	Out  io.Writer
	Err  io.Writer
}

type runner struct {
	env    Env
	reader *bufio.Reader
	app    *app.App
}

// Run executes the command line args against env.
func Run(ctx context.Context, env Env, args []string) error {
	r := &runner{env: env, reader: bufio.NewReader(env.In)}
	root := r.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if r.app != nil {
		err = errors.Join(err, r.app.Close())
	}
	return err
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "billvault",
		Short:         "Track UKSC electricity bills across properties",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.env.Open(cmd.Context())
			if err != nil {
				return err
			}
			r.app = a
			return nil
		},
	}
	root.SetIn(r.env.In)
	root.SetOut(r.env.Out)
	root.SetErr(r.env.Err)

	root.AddCommand(
		r.vaultCommand(),
		r.entryCommand(),
		r.refreshCommand(),
		r.settingsCommand(),
		r.exportCommand(),
		r.importCommand(),
		r.pdfCommand(),
		r.shareCommand(),
		r.duesCommand(),
	)
	return root
}
