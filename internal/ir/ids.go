package ir

import "fmt"

// ValueID is a dense index into a Function's value table.
type ValueID int

func (v ValueID) String() string { return fmt.Sprintf("%%%d", int(v)) }

// BlockID is a dense index into a Function's block table.
type BlockID int

func (b BlockID) String() string { return fmt.Sprintf("$%d", int(b)) }

// VariableID is a dense index into a Function's variable table.
type VariableID int

func (v VariableID) String() string { return fmt.Sprintf("#%d", int(v)) }

// FunctionID is a dense index into a Module's function table.
type FunctionID int
