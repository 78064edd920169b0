package irtext

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ModuleAST is the root production: a name, the pass log, and an ordered
// function list. Mirrors ir.Module field-for-field.
type ModuleAST struct {
	Pos       lexer.Position
	Name      string         `"module" @Ident`
	Passes    []string       `[ "passes" @Pass+ ]`
	Functions []*FunctionAST `@@*`
}

// FunctionAST's head reproduces ir.Function.String()'s own shape
// ("$0: public fn name(...) ret {"); the body adds what that Stringer
// omits (value types, variable declarations) so round-tripping is lossless.
type FunctionAST struct {
	Pos     lexer.Position
	ID      string           `@BlockRef ":" "fn"`
	Linkage string           `@("public"|"private"|"external")`
	Name    string           `@Ident`
	Params  []*ParamAST      `"(" [ @@ { "," @@ } ] ")"`
	Return  *TypeAST         `@@`
	Body    *FunctionBodyAST `"{" @@ "}"`
}

type ParamAST struct {
	Pos  lexer.Position
	Name string   `@Ident ":"`
	Type *TypeAST `@@`
}

type TypeAST struct {
	Pos   lexer.Position
	Name  string   `@Ident`
	Stars []string `{ @"*" }`
}

type FunctionBodyAST struct {
	Vars   []*VarDeclAST `[ "vars" @@ { "," @@ } ]`
	Blocks []*BlockAST   `@@*`
}

type VarDeclAST struct {
	Pos  lexer.Position
	ID   string   `@VarRef ":"`
	Type *TypeAST `@@`
	Name string   `@Ident`
}

type BlockAST struct {
	Pos          lexer.Position
	ID           string            `@BlockRef ":" "preds"`
	Preds        []string          `[ @BlockRef { "," @BlockRef } ]`
	Instructions []*InstructionAST `@@*`
	ParMove      *ParMoveAST       `@@?`
	Terminator   *TerminatorAST    `@@`
}

// YieldAST is the optional "%N: type =" prefix of an instruction. Split out
// of InstructionAST so the whole prefix can be made optional in one group,
// the same way kanso's grammar factors a doc-comment/attribute run into its
// own optional struct field.
type YieldAST struct {
	Pos  lexer.Position
	ID   string  `@ValueRef ":"`
	Type TypeAST `@@`
}

type InstructionAST struct {
	Pos     lexer.Position
	Yielded *YieldAST    `[ @@ "=" ]`
	Op      OperationAST `@@`
}

// OperationAST is the closed set of operation forms, alternated on their
// leading token (a bare integer, a BinOp keyword, "call", "load", "store",
// or the phi sigil) exactly the way kanso's PrimaryExpr alternates on Call
// vs Struct vs Number vs Ident.
type OperationAST struct {
	Integer *string   `  @Integer`
	BinOp   *BinOpAST `| @@`
	Call    *CallAST  `| @@`
	Load    *LoadAST  `| @@`
	Store   *StoreAST `| @@`
	Phi     *PhiAST   `| @@`
}

type BinOpAST struct {
	Pos lexer.Position
	Op  string `@("add"|"sub"|"mul"|"div"|"mod"|"and"|"or"|"xor"|"shl"|"shr"|"eq"|"ne"|"lt"|"le"|"gt"|"ge")`
	Lhs string `@ValueRef`
	Rhs string `@ValueRef`
}

type CallAST struct {
	Pos    lexer.Position
	Callee string   `"call" @BlockRef`
	Args   []string `"(" [ @ValueRef { "," @ValueRef } ] ")"`
}

type LoadAST struct {
	Pos lexer.Position
	Var string `"load" @VarRef`
}

type StoreAST struct {
	Pos   lexer.Position
	Var   string `"store" @VarRef`
	Value string `@ValueRef`
}

type PhiAST struct {
	Pos      lexer.Position
	Incoming []string `"Φ" @ValueRef { "," @ValueRef }`
}

type ParMoveAST struct {
	Pos  lexer.Position
	Dsts []string `"[" @ValueRef { "," @ValueRef } "]" "<-"`
	Srcs []string `"[" @ValueRef { "," @ValueRef } "]"`
}

// TerminatorAST alternates on its leading keyword; NoTerm is accepted for
// symmetry with ir.NoTerm even though a well-formed module never prints one.
type TerminatorAST struct {
	Pos    lexer.Position
	Ret    *string     `  "ret" @ValueRef`
	Jmp    *string     `| "jmp" @BlockRef`
	Br     *BranchAST  `| @@`
	NoTerm bool        `| @"noterm"`
}

type BranchAST struct {
	Pos   lexer.Position
	Cond  string `"br" @ValueRef ","`
	True  string `@BlockRef ","`
	False string `@BlockRef`
}
