package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
	"github.com/Sumatoshi-tech/foliage/pkg/parser"
	"github.com/Sumatoshi-tech/foliage/pkg/render"
	"github.com/Sumatoshi-tech/foliage/pkg/source"
)

// ParseCommand holds flags for the parse command.
type ParseCommand struct {
	instrumented bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	pc := &ParseCommand{}

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the parse tree of a Ruby file",
		Long:  "Print the parse tree of a Ruby file. With --instrumented, print the tree and source after hooks are inserted.",
		Args:  cobra.ExactArgs(1),
		RunE:  pc.run,
	}

	cmd.Flags().BoolVar(&pc.instrumented, "instrumented", false, "Show the tree after instrumentation")

	return cmd
}

func (pc *ParseCommand) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	application, err := newApp(cmd, io.Discard)
	if err != nil {
		return err
	}

	maxSize, err := application.cfg.Coverage.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	data, err := source.Load(args[0], maxSize, source.WithLanguageCheck(application.cfg.Coverage.LanguageCheck))
	if err != nil {
		return errors.Join(err, application.close(ctx))
	}

	p, err := parser.New()
	if err != nil {
		return errors.Join(err, application.close(ctx))
	}

	tree, err := p.Parse(ctx, data, args[0])
	if err != nil {
		return errors.Join(err, application.close(ctx))
	}

	if !pc.instrumented {
		printErr := printTree(out, tree)

		return errors.Join(printErr, application.close(ctx))
	}

	_, err = application.analyzer.CoverBlock(ctx, func(_ context.Context) error {
		if tree == nil {
			return printTree(out, nil)
		}

		instrumented, err := application.analyzer.Instrument(tree)
		if err != nil {
			return err
		}

		if err := printTree(out, instrumented); err != nil {
			return err
		}

		_, err = fmt.Fprintln(out, render.Source(instrumented))

		return err
	})

	return errors.Join(err, application.close(ctx))
}

func printTree(w io.Writer, tree *node.Node) error {
	text := "nil"
	if tree != nil {
		text = tree.String()
	}

	if _, err := fmt.Fprintln(w, text); err != nil {
		return fmt.Errorf("print tree: %w", err)
	}

	return nil
}
