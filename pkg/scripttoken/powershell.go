// SPDX-License-Identifier: MPL-2.0

package scripttoken

import (
	"regexp"
	"strings"
)

// psScopePattern matches scoped variables such as $env:Path or $script:x.
var psScopePattern = regexp.MustCompile(`(?i)\$(?:env|global|local|private|script|using|variable):[\p{L}\p{N}_]`)

type scanState int

const (
	inCode scanState = iota
	inSingleQuote
	inDoubleQuote
	inComment
	inBlockComment
)

// opener is an unmatched '{' or '(' seen while scanning.
type opener struct {
	closer    byte
	hashtable bool
}

// normalizePowerShell rewrites PowerShell-only syntax into bash syntax of
// exactly the same byte length, so offsets into the original text still
// point at the same tokens:
//
//	$env:Name           -> $env_Name (one variable instead of $env + ":Name")
//	@{ k = v }          -> $( k = v )
//	@(a, b)             -> $(a, b)
//	@splat              -> $splat
//	<# block comment #> -> one "#" comment per line
//	`x escapes          -> \x, including line continuations
//	CRLF                -> " \n"
func normalizePowerShell(text string) string {
	b := []byte(text)

	for _, loc := range psScopePattern.FindAllStringIndex(text, -1) {
		colon := loc[0] + strings.IndexByte(text[loc[0]:loc[1]], ':')
		b[colon] = '_'
	}

	rewriteBlocks(b)
	rewriteEscapes(b, text)
	return string(b)
}

// rewriteBlocks handles hashtables, array subexpressions, splats and block
// comments. Quoted strings and comments are skipped.
func rewriteBlocks(b []byte) {
	var (
		state    = inCode
		stack    []opener
		needHash bool
	)

	for i := 0; i < len(b); i++ {
		c := b[i]
		next := byte(0)
		if i+1 < len(b) {
			next = b[i+1]
		}

		switch state {
		case inSingleQuote:
			if c == '\'' {
				state = inCode
			}
		case inDoubleQuote:
			switch c {
			case '`':
				i++
			case '"':
				state = inCode
			}
		case inComment:
			if c == '\n' {
				state = inCode
			}
		case inBlockComment:
			switch {
			case c == '\n':
				needHash = true
			case needHash && (c == ' ' || c == '\t' || c == '\r'):
			case needHash:
				needHash = false
				ends := c == '#' && next == '>'
				b[i] = '#'
				if ends {
					state = inComment
					i++
				}
			case c == '#' && next == '>':
				state = inComment
				i++
			}
		default:
			switch {
			case c == '\'':
				state = inSingleQuote
			case c == '"':
				state = inDoubleQuote
			case c == '`':
				i++
			case c == '<' && next == '#' && atTokenStart(b, i):
				b[i] = '#'
				state = inBlockComment
				i++
			case c == '#' && atTokenStart(b, i):
				state = inComment
			case c == '@' && next == '{':
				b[i], b[i+1] = '$', '('
				stack = append(stack, opener{closer: '}', hashtable: true})
				i++
			case c == '@' && next == '(':
				b[i] = '$'
				stack = append(stack, opener{closer: ')'})
				i++
			case c == '@' && isIdentStart(next) && atTokenStart(b, i):
				b[i] = '$'
			case c == '{':
				stack = append(stack, opener{closer: '}'})
			case c == '(':
				stack = append(stack, opener{closer: ')'})
			case c == '}' || c == ')':
				if n := len(stack); n > 0 && stack[n-1].closer == c {
					if stack[n-1].hashtable {
						b[i] = ')'
					}
					stack = stack[:n-1]
				}
			}
		}
	}
}

// rewriteEscapes turns backtick escapes into backslash escapes and drops
// carriage returns. orig is consulted so a continuation before CRLF keeps
// the backslash directly in front of the newline.
func rewriteEscapes(b []byte, orig string) {
	for i := range b {
		switch orig[i] {
		case '`':
			b[i] = '\\'
		case '\r':
			if i > 0 && orig[i-1] == '`' && i+1 < len(b) && orig[i+1] == '\n' {
				b[i-1], b[i] = ' ', '\\'
				continue
			}
			b[i] = ' '
		}
	}
}

func atTokenStart(b []byte, i int) bool {
	if i == 0 {
		return true
	}
	return strings.IndexByte(" \t\r\n;|({=,", b[i-1]) >= 0
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
