// Package editcmd implements the XML-like edit-command language the wiki
// editor accepts from a language model: a hand-rolled tokenizer and tree
// builder for a closed tag dialect, typed command values, and a pure
// executor that applies one command to a document string.
package editcmd

// CommandType identifies one of the supported edit operations.
type CommandType string

const (
	CommandInsert  CommandType = "insert"
	CommandReplace CommandType = "replace"
	CommandDelete  CommandType = "delete"
	CommandAppend  CommandType = "append"
	CommandPrepend CommandType = "prepend"
	CommandMove    CommandType = "move"
	CommandCopy    CommandType = "copy"
	CommandBatch   CommandType = "batch"

	// commandsTag wraps the nested command list inside a batch. It is part
	// of the tag vocabulary but is not itself a command.
	commandsTag = "commands"
)

var commandTypes = map[string]CommandType{
	"insert":  CommandInsert,
	"replace": CommandReplace,
	"delete":  CommandDelete,
	"append":  CommandAppend,
	"prepend": CommandPrepend,
	"move":    CommandMove,
	"copy":    CommandCopy,
	"batch":   CommandBatch,
}

// Command is one typed edit operation produced by the parser and consumed
// once by the executor.
type Command interface {
	Type() CommandType
}

// InsertCommand inserts Content at a numeric offset or relative to the
// first occurrence of a marker text. Exactly one of Position, After or
// Before is set.
type InsertCommand struct {
	Position *int
	After    string
	Before   string
	Content  string
}

func (*InsertCommand) Type() CommandType { return CommandInsert }

// ReplaceCommand substitutes Search with Replace. ReplaceAll covers every
// non-overlapping occurrence; otherwise only the first match is changed.
type ReplaceCommand struct {
	Search        string
	Replace       string
	ReplaceAll    bool
	CaseSensitive bool
}

func (*ReplaceCommand) Type() CommandType { return CommandReplace }

// DeleteCommand removes either the occurrence(s) of Search or the
// character range [Start, End).
type DeleteCommand struct {
	Search        string
	DeleteAll     bool
	CaseSensitive bool
	Start         *int
	End           *int
}

func (*DeleteCommand) Type() CommandType { return CommandDelete }

// AppendCommand adds Content at the end of the document. NewLine controls
// whether a separating newline is inserted at the join point.
type AppendCommand struct {
	Content string
	NewLine bool
}

func (*AppendCommand) Type() CommandType { return CommandAppend }

// PrependCommand adds Content at the start of the document.
type PrependCommand struct {
	Content string
	NewLine bool
}

func (*PrependCommand) Type() CommandType { return CommandPrepend }

// MoveCommand relocates the first occurrence of Search to the resolved
// target position. Exactly one of Position, After or Before is set.
type MoveCommand struct {
	Search   string
	Position *int
	After    string
	Before   string
}

func (*MoveCommand) Type() CommandType { return CommandMove }

// CopyCommand duplicates the first occurrence of Search at the resolved
// target position without removing the original.
type CopyCommand struct {
	Search   string
	Position *int
	After    string
	Before   string
}

func (*CopyCommand) Type() CommandType { return CommandCopy }

// BatchCommand executes nested commands in order against a running
// document value. StopOnError selects fail-fast (default) over
// skip-and-continue handling of nested failures.
type BatchCommand struct {
	Commands    []Command
	StopOnError bool
}

func (*BatchCommand) Type() CommandType { return CommandBatch }
