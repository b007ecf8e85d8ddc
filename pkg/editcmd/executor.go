package editcmd

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Result reports the outcome of applying one command to a document. The
// input string is never mutated; NewContent carries the full replacement
// text (equal to PreviousContent when the command failed). For a batch,
// Results holds the per-nested-command outcomes in execution order.
type Result struct {
	Success         bool
	Command         Command
	Err             error
	PreviousContent string
	NewContent      string
	Changes         int
	Results         []Result
}

// Execute applies one command to content and returns the outcome. It is a
// pure function: batch commands recurse over a running copy of the
// document, so a failed nested command can simply drop its attempted
// content without any rollback machinery.
func Execute(content string, cmd Command) Result {
	if batch, ok := cmd.(*BatchCommand); ok {
		return executeBatch(content, batch)
	}

	newContent, changes, err := apply(content, cmd)
	if err != nil {
		return Result{
			Command:         cmd,
			Err:             err,
			PreviousContent: content,
			NewContent:      content,
		}
	}
	return Result{
		Success:         true,
		Command:         cmd,
		PreviousContent: content,
		NewContent:      newContent,
		Changes:         changes,
	}
}

func apply(content string, cmd Command) (string, int, error) {
	switch c := cmd.(type) {
	case *InsertCommand:
		return applyInsert(content, c)
	case *ReplaceCommand:
		return applyReplace(content, c)
	case *DeleteCommand:
		return applyDelete(content, c)
	case *AppendCommand:
		return applyAppend(content, c)
	case *PrependCommand:
		return applyPrepend(content, c)
	case *MoveCommand:
		return applyMove(content, c)
	case *CopyCommand:
		return applyCopy(content, c)
	default:
		return "", 0, executionErrorf(cmd, "unsupported command type")
	}
}

func applyInsert(content string, c *InsertCommand) (string, int, error) {
	offset, err := resolveTarget(content, c, c.Position, c.After, c.Before)
	if err != nil {
		return "", 0, err
	}
	return content[:offset] + c.Content + content[offset:], 1, nil
}

func applyReplace(content string, c *ReplaceCommand) (string, int, error) {
	matches := findMatches(content, c.Search, c.CaseSensitive)
	if len(matches) == 0 {
		return "", 0, executionErrorf(c, "search text not found: %q", c.Search)
	}
	if !c.ReplaceAll {
		matches = matches[:1]
	}
	return spliceMatches(content, matches, c.Replace), len(matches), nil
}

func applyDelete(content string, c *DeleteCommand) (string, int, error) {
	if c.Search != "" {
		matches := findMatches(content, c.Search, c.CaseSensitive)
		if len(matches) == 0 {
			return "", 0, executionErrorf(c, "search text not found: %q", c.Search)
		}
		if !c.DeleteAll {
			matches = matches[:1]
		}
		return spliceMatches(content, matches, ""), len(matches), nil
	}

	// Range mode. The parser rejects malformed ranges, but commands built
	// directly in code arrive unchecked.
	if c.Start == nil || c.End == nil {
		return "", 0, executionErrorf(c, "delete requires a search text or a start/end range")
	}
	start, end := *c.Start, *c.End
	if start < 0 || end < start {
		return "", 0, executionErrorf(c, "invalid delete range [%d,%d]", start, end)
	}
	if start > len(content) {
		start = len(content)
	}
	if end > len(content) {
		end = len(content)
	}
	return content[:start] + content[end:], 1, nil
}

func applyAppend(content string, c *AppendCommand) (string, int, error) {
	if content == "" {
		return c.Content, 1, nil
	}
	sep := ""
	if c.NewLine && !strings.HasSuffix(content, "\n") && !strings.HasPrefix(c.Content, "\n") {
		sep = "\n"
	}
	return content + sep + c.Content, 1, nil
}

func applyPrepend(content string, c *PrependCommand) (string, int, error) {
	if content == "" {
		return c.Content, 1, nil
	}
	sep := ""
	if c.NewLine && !strings.HasSuffix(c.Content, "\n") && !strings.HasPrefix(content, "\n") {
		sep = "\n"
	}
	return c.Content + sep + content, 1, nil
}

// applyMove removes the first occurrence of the search text and re-inserts
// it at the resolved target. Surrounding separators at the original
// location are left behind; callers see a residual gap there. Known
// behavior, kept as-is.
func applyMove(content string, c *MoveCommand) (string, int, error) {
	idx := strings.Index(content, c.Search)
	if idx == -1 {
		return "", 0, executionErrorf(c, "search text not found: %q", c.Search)
	}
	removed := content[:idx] + content[idx+len(c.Search):]
	offset, err := resolveTarget(removed, c, c.Position, c.After, c.Before)
	if err != nil {
		return "", 0, err
	}
	return removed[:offset] + c.Search + removed[offset:], 1, nil
}

func applyCopy(content string, c *CopyCommand) (string, int, error) {
	idx := strings.Index(content, c.Search)
	if idx == -1 {
		return "", 0, executionErrorf(c, "search text not found: %q", c.Search)
	}
	offset, err := resolveTarget(content, c, c.Position, c.After, c.Before)
	if err != nil {
		return "", 0, err
	}
	return content[:offset] + c.Search + content[offset:], 1, nil
}

func executeBatch(content string, batch *BatchCommand) Result {
	result := Result{
		Success:         true,
		Command:         batch,
		PreviousContent: content,
		NewContent:      content,
	}
	for _, sub := range batch.Commands {
		subResult := Execute(result.NewContent, sub)
		result.Results = append(result.Results, subResult)
		if subResult.Success {
			result.NewContent = subResult.NewContent
			result.Changes += subResult.Changes
			continue
		}
		if batch.StopOnError {
			// Fail fast: keep the effects applied so far, report failure.
			result.Success = false
			result.Err = subResult.Err
			break
		}
		// Fail isolated: the failed command's attempted effect is dropped
		// and the batch carries on.
	}
	return result
}

// resolveTarget turns a position/after/before triple into a 0-indexed
// offset into content. Numeric positions are clamped into [0, len].
func resolveTarget(content string, cmd Command, position *int, after, before string) (int, error) {
	switch {
	case position != nil:
		offset := *position
		if offset < 0 {
			offset = 0
		}
		if offset > len(content) {
			offset = len(content)
		}
		return offset, nil
	case after != "":
		idx := strings.Index(content, after)
		if idx == -1 {
			return 0, executionErrorf(cmd, "could not find text to insert after: %q", after)
		}
		return idx + len(after), nil
	case before != "":
		idx := strings.Index(content, before)
		if idx == -1 {
			return 0, executionErrorf(cmd, "could not find text to insert before: %q", before)
		}
		return idx, nil
	default:
		return 0, executionErrorf(cmd, "no target position given")
	}
}

// span is one matched byte range [start, end) in the original content.
// Matches carry their own width: under case folding the matched text can
// differ in byte length from the search text.
type span struct {
	start, end int
}

// findMatches returns every non-overlapping occurrence of search in
// content, optionally ignoring case. Offsets always refer to the
// original string, never to a case-converted copy.
func findMatches(content, search string, caseSensitive bool) []span {
	if search == "" {
		return nil
	}
	if caseSensitive {
		var matches []span
		for from := 0; ; {
			idx := strings.Index(content[from:], search)
			if idx == -1 {
				break
			}
			start := from + idx
			matches = append(matches, span{start: start, end: start + len(search)})
			from = start + len(search)
		}
		return matches
	}

	var matches []span
	for i := 0; i < len(content); {
		if width, ok := foldPrefix(content[i:], search); ok {
			matches = append(matches, span{start: i, end: i + width})
			i += width
			continue
		}
		_, size := utf8.DecodeRuneInString(content[i:])
		i += size
	}
	return matches
}

// foldPrefix reports whether content starts with search under simple
// Unicode case folding, returning the byte width of the matched prefix
// in content.
func foldPrefix(content, search string) (int, bool) {
	w := 0
	for _, sr := range search {
		cr, size := utf8.DecodeRuneInString(content[w:])
		if size == 0 || !foldEqual(cr, sr) {
			return 0, false
		}
		w += size
	}
	return w, true
}

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// spliceMatches replaces the matched spans with the replacement text,
// preserving the original text everywhere else.
func spliceMatches(content string, matches []span, replacement string) string {
	var b strings.Builder
	prev := 0
	for _, m := range matches {
		b.WriteString(content[prev:m.start])
		b.WriteString(replacement)
		prev = m.end
	}
	b.WriteString(content[prev:])
	return b.String()
}
