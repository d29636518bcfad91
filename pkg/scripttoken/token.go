// SPDX-License-Identifier: MPL-2.0

// Package scripttoken turns automation scripts into lexical token sequences
// for downstream rule evaluation.
//
// The lexer itself is pluggable through the Tokenizer interface. The default
// ShellTokenizer is backed by mvdan.cc/sh. Common PowerShell constructs are
// rewritten into their bash shape before parsing; scripts it still cannot
// parse produce a tokenizer error.
package scripttoken

import (
	"errors"
	"fmt"

	"github.com/pkgvet/pkgvet/pkg/automation"
)

const (
	// KindCommand is the name of an invoked command.
	KindCommand Kind = "command"
	// KindWord is a bare literal argument.
	KindWord Kind = "word"
	// KindString is a quoted string.
	KindString Kind = "string"
	// KindVariable is a variable expansion or assignment target.
	KindVariable Kind = "variable"
	// KindComment is a comment.
	KindComment Kind = "comment"
	// KindOperator is a control or redirection operator.
	KindOperator Kind = "operator"
)

// ErrTokenize is the sentinel wrapped by TokenizeError.
var ErrTokenize = errors.New("tokenize script")

type (
	// Kind classifies a token.
	Kind string

	// Token is a single lexical token with its source position.
	Token struct {
		Kind   Kind   `json:"kind" toml:"kind" yaml:"kind"`
		Text   string `json:"text" toml:"text" yaml:"text"`
		Line   int    `json:"line" toml:"line" yaml:"line"`
		Col    int    `json:"col" toml:"col" yaml:"col"`
		Offset int    `json:"-" toml:"-" yaml:"-"`
	}

	// Tokenizer lexes script text into tokens.
	Tokenizer interface {
		Tokenize(text string) ([]Token, error)
	}

	// TokenMap holds token sequences keyed by the same archive path as the
	// automation.ScriptMap they were derived from.
	TokenMap map[string][]Token

	// TokenizeError reports which script the tokenizer rejected.
	TokenizeError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *TokenizeError) Error() string {
	return fmt.Sprintf("failed to tokenize %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrTokenize and the tokenizer's own error so both can be
// matched with errors.Is.
func (e *TokenizeError) Unwrap() []error {
	return []error{ErrTokenize, e.Err}
}

// TokenizeScripts tokenizes every script of m. No script is skipped: the first
// tokenizer failure aborts the whole call with a *TokenizeError.
func TokenizeScripts(tok Tokenizer, m automation.ScriptMap) (TokenMap, error) {
	result := make(TokenMap, len(m))
	for _, path := range m.Paths() {
		tokens, err := tok.Tokenize(m[path].Content)
		if err != nil {
			return nil, &TokenizeError{Path: path, Err: err}
		}
		result[path] = tokens
	}
	return result, nil
}
