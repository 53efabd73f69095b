package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/foliage/pkg/coverage"
)

// RunCommand holds flags for the run command.
type RunCommand struct {
	output outputFlags
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}

	cmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Measure branch coverage of Ruby files",
		Long:  "Run each Ruby file in its own coverage session and report unobserved branch outcomes.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  rc.run,
	}

	rc.output.register(cmd)

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	application, err := newApp(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	reports := make([]*coverage.Report, 0, len(args))

	var runErr error

	for _, path := range args {
		rep, err := application.analyzer.RunFile(ctx, path)
		if rep != nil {
			reports = append(reports, rep)
		}

		if err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	emitErr := application.emit(cmd.OutOrStdout(), reports, rc.output)

	return errors.Join(runErr, emitErr, application.close(ctx))
}
