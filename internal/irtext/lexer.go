// Package irtext prints a Module to text and parses that text back into a
// Module, backing the pretty-print/parse/pretty-print round-trip law.
package irtext

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// IRLexer tokenizes the textual IR format: dense-id sigils (%value, $block,
// #variable), the phi sigil, and the keyword/punctuation vocabulary printed
// by Print. Rule order matters, same as grammar.KansoLexer: sigil-prefixed
// refs and the phi symbol must be tried before the generic Ident rule.
var IRLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Pass", `@[a-zA-Z_]+`, nil},
		{"Phi", `Φ`, nil},
		{"ValueRef", `%[0-9]+`, nil},
		{"BlockRef", `\$[0-9]+`, nil},
		{"VarRef", `#[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `-?[0-9]+`, nil},
		{"Arrow", `<-`, nil},
		{"Punctuation", `[(){}\[\]:,*=]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
