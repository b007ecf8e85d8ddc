package editcmd

import (
	"strconv"
	"strings"
)

// node is one tag frame built by the tokenizer. Only the first
// non-whitespace text run under a tag is kept as its content; later text
// nodes are ignored (this dialect has no mixed-content support). A run is
// bounded by tags, not by literal '<' characters: text accumulates in
// pending until the next tag boundary finalizes it.
type node struct {
	name     string
	content  string
	hasText  bool
	pending  strings.Builder
	children []*node
}

// endTextRun finalizes the in-progress text run at a tag boundary.
// Whitespace-only runs (indentation between parameter tags) are
// discarded; the first real run becomes the frame's content and later
// runs are dropped.
func (n *node) endTextRun() {
	run := strings.TrimSpace(n.pending.String())
	n.pending.Reset()
	if n.hasText || run == "" {
		return
	}
	n.content = run
	n.hasText = true
}

// ParseCommands extracts every top-level command from the input. The input
// may carry leading or trailing prose outside tags; any top-level tag that
// is not a recognized command type is a parse error.
func ParseCommands(input string) ([]Command, error) {
	roots, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	var cmds []Command
	for _, n := range roots {
		cmd, err := commandFromNode(n)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// ParseCommand is the single-command convenience wrapper: it requires that
// exactly one command be found in the input.
func ParseCommand(input string) (Command, error) {
	cmds, err := ParseCommands(input)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		return nil, parseErrorf(ParseErrBadCommand, "no command found in input")
	}
	if len(cmds) > 1 {
		return nil, parseErrorf(ParseErrBadCommand, "expected exactly one command, found %d", len(cmds))
	}
	return cmds[0], nil
}

// tokenize scans the input character by character, pushing a frame on each
// opening tag and popping on the matching closing tag. Text outside any
// frame is treated as prose and dropped.
func tokenize(input string) ([]*node, error) {
	var roots []*node
	var stack []*node

	i := 0
	for i < len(input) {
		if input[i] == '<' {
			end := strings.IndexByte(input[i:], '>')
			if end == -1 {
				// No '>' anywhere ahead; the rest is plain text.
				appendText(stack, input[i:])
				break
			}
			raw := input[i+1 : i+end]
			closing := strings.HasPrefix(raw, "/")
			name := strings.TrimPrefix(raw, "/")
			if name == "" {
				return nil, parseErrorf(ParseErrEmptyTagName, "empty tag name at offset %d", i)
			}
			if !validTagName(name) {
				// Not a tag of this dialect; the '<' is literal text and
				// does not end the current run.
				appendText(stack, "<")
				i++
				continue
			}
			if closing {
				if len(stack) == 0 {
					return nil, parseErrorf(ParseErrMismatchedTag, "closing tag </%s> without a matching opening tag", name)
				}
				top := stack[len(stack)-1]
				top.endTextRun()
				if top.name != name {
					return nil, parseErrorf(ParseErrMismatchedTag, "closing tag </%s> does not match opening tag <%s>", name, top.name)
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					roots = append(roots, top)
				} else {
					parent := stack[len(stack)-1]
					parent.children = append(parent.children, top)
				}
			} else {
				if len(stack) > 0 {
					stack[len(stack)-1].endTextRun()
				}
				stack = append(stack, &node{name: name})
			}
			i += end + 1
			continue
		}

		next := strings.IndexByte(input[i:], '<')
		var text string
		if next == -1 {
			text = input[i:]
			i = len(input)
		} else {
			text = input[i : i+next]
			i += next
		}
		appendText(stack, text)
	}

	if len(stack) > 0 {
		return nil, parseErrorf(ParseErrUnclosedTag, "unclosed tag <%s>", stack[len(stack)-1].name)
	}
	return roots, nil
}

// appendText adds text to the innermost open frame's in-progress run.
// Text outside any frame is prose and is dropped.
func appendText(stack []*node, text string) {
	if len(stack) == 0 {
		return
	}
	top := stack[len(stack)-1]
	if top.hasText {
		return
	}
	top.pending.WriteString(text)
}

func validTagName(name string) bool {
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return len(name) > 0
}

// commandFromNode materializes one fully-closed tag into a typed command,
// gathering its non-command direct children as named parameters and the
// <commands> child (batch only) as the nested command list.
func commandFromNode(n *node) (Command, error) {
	typ, ok := commandTypes[n.name]
	if !ok {
		return nil, parseErrorf(ParseErrBadCommand, "unknown command tag <%s>", n.name)
	}

	params := make(map[string]string)
	var nested []*node
	for _, child := range n.children {
		if child.name == commandsTag {
			nested = child.children
			continue
		}
		// Every other direct child is a parameter. Command names are not
		// reserved here: <replace> inside <replace> is the replacement
		// text, not a nested command.
		if _, dup := params[child.name]; !dup {
			params[child.name] = child.content
		}
	}

	switch typ {
	case CommandInsert:
		return insertFromParams(params)
	case CommandReplace:
		return replaceFromParams(params)
	case CommandDelete:
		return deleteFromParams(params)
	case CommandAppend:
		return appendFromParams(params)
	case CommandPrepend:
		return prependFromParams(params)
	case CommandMove:
		return moveFromParams(params)
	case CommandCopy:
		return copyFromParams(params)
	default:
		return batchFromParams(params, nested)
	}
}

func insertFromParams(params map[string]string) (Command, error) {
	pos, after, before, err := targetFromParams(params, "insert")
	if err != nil {
		return nil, err
	}
	content, ok := params["content"]
	if !ok {
		return nil, parseErrorf(ParseErrBadCommand, "insert command requires a content parameter")
	}
	return &InsertCommand{Position: pos, After: after, Before: before, Content: content}, nil
}

func replaceFromParams(params map[string]string) (Command, error) {
	search, ok := params["search"]
	if !ok {
		return nil, parseErrorf(ParseErrBadCommand, "replace command requires a search parameter")
	}
	return &ReplaceCommand{
		Search:        search,
		Replace:       params["replace"],
		ReplaceAll:    boolParam(params, "replace_all", false),
		CaseSensitive: boolParam(params, "case_sensitive", true),
	}, nil
}

func deleteFromParams(params map[string]string) (Command, error) {
	cmd := &DeleteCommand{
		DeleteAll:     boolParam(params, "delete_all", false),
		CaseSensitive: boolParam(params, "case_sensitive", true),
	}
	if search, ok := params["search"]; ok {
		cmd.Search = search
		return cmd, nil
	}

	_, hasStart := params["start"]
	_, hasEnd := params["end"]
	if !hasStart && !hasEnd {
		return nil, parseErrorf(ParseErrBadCommand, "delete command requires a search parameter or a start/end range")
	}
	if hasStart != hasEnd {
		return nil, parseErrorf(ParseErrBadCommand, "delete command requires both start and end for a range")
	}
	start, err := intParam(params, "start", "delete")
	if err != nil {
		return nil, err
	}
	end, err := intParam(params, "end", "delete")
	if err != nil {
		return nil, err
	}
	if start < 0 || end < 0 {
		return nil, parseErrorf(ParseErrBadCommand, "delete range must be non-negative, got [%d,%d]", start, end)
	}
	if start > end {
		return nil, parseErrorf(ParseErrBadCommand, "delete range start must be <= end, got [%d,%d]", start, end)
	}
	cmd.Start = &start
	cmd.End = &end
	return cmd, nil
}

func appendFromParams(params map[string]string) (Command, error) {
	content, ok := params["content"]
	if !ok {
		return nil, parseErrorf(ParseErrBadCommand, "append command requires a content parameter")
	}
	return &AppendCommand{Content: content, NewLine: boolParam(params, "new_line", true)}, nil
}

func prependFromParams(params map[string]string) (Command, error) {
	content, ok := params["content"]
	if !ok {
		return nil, parseErrorf(ParseErrBadCommand, "prepend command requires a content parameter")
	}
	return &PrependCommand{Content: content, NewLine: boolParam(params, "new_line", true)}, nil
}

func moveFromParams(params map[string]string) (Command, error) {
	search, ok := params["search"]
	if !ok {
		return nil, parseErrorf(ParseErrBadCommand, "move command requires a search parameter")
	}
	pos, after, before, err := targetFromParams(params, "move")
	if err != nil {
		return nil, err
	}
	return &MoveCommand{Search: search, Position: pos, After: after, Before: before}, nil
}

func copyFromParams(params map[string]string) (Command, error) {
	search, ok := params["search"]
	if !ok {
		return nil, parseErrorf(ParseErrBadCommand, "copy command requires a search parameter")
	}
	pos, after, before, err := targetFromParams(params, "copy")
	if err != nil {
		return nil, err
	}
	return &CopyCommand{Search: search, Position: pos, After: after, Before: before}, nil
}

func batchFromParams(params map[string]string, nested []*node) (Command, error) {
	cmd := &BatchCommand{StopOnError: boolParam(params, "stop_on_error", true)}
	for _, child := range nested {
		if _, isCmd := commandTypes[child.name]; !isCmd {
			return nil, parseErrorf(ParseErrBadCommand, "batch commands may only contain command tags, got <%s>", child.name)
		}
		sub, err := commandFromNode(child)
		if err != nil {
			return nil, err
		}
		cmd.Commands = append(cmd.Commands, sub)
	}
	if len(cmd.Commands) == 0 {
		return nil, parseErrorf(ParseErrBadCommand, "batch command requires at least one nested command")
	}
	return cmd, nil
}

// targetFromParams resolves the positioning parameters shared by insert,
// move and copy: exactly one of position, after or before must be present.
func targetFromParams(params map[string]string, name string) (*int, string, string, error) {
	count := 0
	var pos *int
	if _, ok := params["position"]; ok {
		n, err := intParam(params, "position", name)
		if err != nil {
			return nil, "", "", err
		}
		pos = &n
		count++
	}
	after, hasAfter := params["after"]
	if hasAfter {
		count++
	}
	before, hasBefore := params["before"]
	if hasBefore {
		count++
	}
	if count == 0 {
		return nil, "", "", parseErrorf(ParseErrBadCommand, "%s command requires one of position, after, or before", name)
	}
	if count > 1 {
		return nil, "", "", parseErrorf(ParseErrBadCommand, "%s command can only use one of position, after, or before", name)
	}
	return pos, after, before, nil
}

func intParam(params map[string]string, key, command string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(params[key]))
	if err != nil {
		return 0, parseErrorf(ParseErrBadCommand, "%s command has an invalid %s %q", command, key, params[key])
	}
	return n, nil
}

// boolParam reads a boolean parameter: "true", "1" and "yes" (any case)
// are true, any other present value is false, absence yields the default.
func boolParam(params map[string]string, name string, def bool) bool {
	raw, ok := params[name]
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
