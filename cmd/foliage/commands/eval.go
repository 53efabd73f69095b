package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/foliage/pkg/coverage"
)

// ErrNoCode is returned when eval is given no code.
var ErrNoCode = errors.New("no code given, use -e")

// EvalCommand holds flags for the eval command.
type EvalCommand struct {
	code    string
	fileTag string
	output  outputFlags
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	ec := &EvalCommand{}

	cmd := &cobra.Command{
		Use:   "eval -e CODE",
		Short: "Measure branch coverage of inline Ruby code",
		Args:  cobra.NoArgs,
		RunE:  ec.run,
	}

	cmd.Flags().StringVarP(&ec.code, "expr", "e", "", "Ruby code to run")
	cmd.Flags().StringVar(&ec.fileTag, "tag", "", "File tag used in diagnostics (default from config)")
	ec.output.register(cmd)

	return cmd
}

func (ec *EvalCommand) run(cmd *cobra.Command, _ []string) error {
	if ec.code == "" {
		return ErrNoCode
	}

	ctx := cmd.Context()

	application, err := newApp(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	tag := ec.fileTag
	if tag == "" {
		tag = application.cfg.Coverage.FileTag
	}

	rep, runErr := application.analyzer.RunText(ctx, ec.code, tag)
	emitErr := application.emit(cmd.OutOrStdout(), []*coverage.Report{rep}, ec.output)

	return errors.Join(runErr, emitErr, application.close(ctx))
}
