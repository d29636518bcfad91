// SPDX-License-Identifier: MPL-2.0

package scripttoken

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ShellTokenizer tokenizes scripts with the mvdan.cc/sh bash parser.
type ShellTokenizer struct {
	variant syntax.LangVariant
}

// NewShellTokenizer creates a tokenizer using the bash language variant.
func NewShellTokenizer() *ShellTokenizer {
	return &ShellTokenizer{variant: syntax.LangBash}
}

// Tokenize parses text and flattens the syntax tree into tokens ordered by
// source offset. PowerShell-only constructs (hashtables, splats, scoped
// variables, block comments, backtick escapes) are rewritten into bash
// syntax before parsing; token text is always taken from the original.
// Parse errors are returned unchanged so callers can inspect the
// syntax.ParseError position.
func (t *ShellTokenizer) Tokenize(text string) ([]Token, error) {
	parser := syntax.NewParser(syntax.KeepComments(true), syntax.Variant(t.variant))
	file, err := parser.Parse(strings.NewReader(normalizePowerShell(text)), "script")
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}

	c := &collector{
		src:      text,
		tokens:   []Token{},
		commands: make(map[*syntax.Lit]bool),
		assigns:  make(map[*syntax.Lit]bool),
	}
	syntax.Walk(file, c.visit)

	slices.SortStableFunc(c.tokens, func(a, b Token) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	return c.tokens, nil
}

type collector struct {
	src      string
	tokens   []Token
	commands map[*syntax.Lit]bool
	assigns  map[*syntax.Lit]bool
}

func (c *collector) visit(node syntax.Node) bool {
	switch n := node.(type) {
	case *syntax.CallExpr:
		for _, a := range n.Assigns {
			if a.Name != nil {
				c.assigns[a.Name] = true
			}
		}
		if len(n.Args) > 0 && len(n.Args[0].Parts) == 1 {
			if lit, ok := n.Args[0].Parts[0].(*syntax.Lit); ok {
				c.commands[lit] = true
			}
		}
	case *syntax.Lit:
		kind := KindWord
		switch {
		case c.commands[n]:
			kind = KindCommand
		case c.assigns[n]:
			kind = KindVariable
		}
		c.add(kind, n.Pos(), n.End())
	case *syntax.SglQuoted:
		c.add(KindString, n.Pos(), n.End())
	case *syntax.DblQuoted:
		c.add(KindString, n.Pos(), n.End())
		return false
	case *syntax.ParamExp:
		c.add(KindVariable, n.Pos(), n.End())
		return false
	case *syntax.Comment:
		c.add(KindComment, n.Pos(), n.End())
	case *syntax.BinaryCmd:
		c.addText(KindOperator, n.Op.String(), n.OpPos)
	case *syntax.Redirect:
		c.addText(KindOperator, n.Op.String(), n.OpPos)
	}
	return true
}

func (c *collector) add(kind Kind, start, end syntax.Pos) {
	from, to := int(start.Offset()), int(end.Offset())
	if from < 0 || to > len(c.src) || from >= to {
		return
	}
	c.addText(kind, c.src[from:to], start)
}

func (c *collector) addText(kind Kind, text string, pos syntax.Pos) {
	c.tokens = append(c.tokens, Token{
		Kind:   kind,
		Text:   text,
		Line:   int(pos.Line()),
		Col:    int(pos.Col()),
		Offset: int(pos.Offset()),
	})
}
