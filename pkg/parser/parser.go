// Package parser turns Ruby source into node trees using the tree-sitter Ruby grammar.
package parser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexaandru/go-sitter-forest/ruby"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

// Sentinel errors for parser operations.
var (
	// ErrSyntax is returned when the source is malformed.
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupported is returned for well-formed Ruby outside the supported subset.
	ErrUnsupported = errors.New("unsupported syntax")

	errLanguageNotAvailable = errors.New("tree-sitter ruby language not available")
	errNoRootNode           = errors.New("parser: no root node")
	errPoolType             = errors.New("parser: pool returned unexpected type")
)

// Parser parses Ruby source. It is safe for concurrent use.
type Parser struct {
	language     *sitter.Language
	tsParserPool sync.Pool
}

// New creates a Parser bound to the Ruby grammar.
func New() (*Parser, error) {
	var lang *sitter.Language

	func() {
		defer func() {
			_ = recover() //nolint:errcheck // recover() returns any, not error
		}()

		lang = sitter.NewLanguage(ruby.GetLanguage())
	}()

	if lang == nil {
		return nil, errLanguageNotAvailable
	}

	parser := &Parser{language: lang}
	parser.tsParserPool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	return parser, nil
}

// Parse parses source and returns the root node, tagging every position with file.
// An empty program (only whitespace or comments) yields (nil, nil).
func (parser *Parser) Parse(ctx context.Context, source []byte, file string) (*node.Node, error) {
	if file == "" {
		file = node.DefaultFile
	}

	tsParser, ok := parser.tsParserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer parser.tsParserPool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parser: failed to parse %s: %w", file, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	if root.HasError() {
		return nil, fmt.Errorf("%w at %s:%d", ErrSyntax, file, firstErrorLine(root))
	}

	conv := &converter{source: source, file: file}

	return conv.program(root)
}

// ParseString is a convenience wrapper around Parse for string input.
func (parser *Parser) ParseString(ctx context.Context, source, file string) (*node.Node, error) {
	return parser.Parse(ctx, []byte(source), file)
}

// firstErrorLine returns the 1-based line of the first ERROR node, or the
// root line when none is found.
func firstErrorLine(root sitter.Node) uint {
	stack := []sitter.Node{root}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current.Type() == "ERROR" {
			return current.StartPoint().Row + 1
		}

		for idx := current.NamedChildCount(); idx > 0; idx-- {
			stack = append(stack, current.NamedChild(idx-1))
		}
	}

	return root.StartPoint().Row + 1
}
