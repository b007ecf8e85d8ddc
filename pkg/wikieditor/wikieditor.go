// Package wikieditor provides the wiki editor component: a virtual
// document held as component state, edited exclusively through XML edit
// commands written into the edit_command field. The command pipeline runs
// as a side effect of that field, so every outcome (including parse
// failures) lands back in the rendered context for the model to read.
package wikieditor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wjixiang/aikb/pkg/config"
	"github.com/wjixiang/aikb/pkg/editcmd"
	"github.com/wjixiang/aikb/pkg/events"
	"github.com/wjixiang/aikb/pkg/history"
	"github.com/wjixiang/aikb/pkg/schema"
	"github.com/wjixiang/aikb/pkg/workspace"
)

// FieldEditCommand is the single editable field of the wiki editor.
const FieldEditCommand = "edit_command"

// State keys owned by the component. Only edit_command is editable; the
// rest are derived by the command pipeline.
const (
	stateContent      = "content"
	stateLastResult   = "last_result"
	stateCommandCount = "command_count"
)

// WikiEditor is a workspace component wrapping a document string.
type WikiEditor struct {
	*workspace.BaseComponent
	history     *history.Store
	bus         *events.EventBus
	historyTail int
}

// New creates a wiki editor seeded with the given document content. bus
// may be nil.
func New(id, initialContent string, cfg config.Config, bus *events.EventBus) *WikiEditor {
	e := &WikiEditor{
		BaseComponent: workspace.NewBaseComponent(id, "Wiki Editor",
			"A document you edit by writing XML commands into the edit_command field. "+
				"Supported commands: insert, replace, delete, append, prepend, move, copy, batch."),
		history:     history.NewStore(cfg.MaxCommandHistory),
		bus:         bus,
		historyTail: cfg.RenderHistoryTail,
	}
	e.SetStateValue(stateContent, initialContent)
	e.SetStateValue(stateLastResult, "")
	e.SetStateValue(stateCommandCount, 0)
	e.DeclareField(FieldEditCommand, &workspace.EditableField{
		Schema: schema.String{Nullable: true},
		Description: "XML edit command(s) to apply to the document, e.g. " +
			"<append><content>text</content></append>. Set to null to clear.",
	})
	e.AddSideEffect(&workspace.SideEffect{
		ID:           "process_edit_command",
		Dependencies: []string{FieldEditCommand},
		Execute:      e.processEditCommand,
	})
	return e
}

// Document returns the current document content.
func (e *WikiEditor) Document() string {
	content, _ := e.StateValue(stateContent).(string)
	return content
}

// LastResult returns the stored outcome of the most recent command.
func (e *WikiEditor) LastResult() string {
	last, _ := e.StateValue(stateLastResult).(string)
	return last
}

// History returns the recorded command history, oldest first.
func (e *WikiEditor) History() []history.Entry {
	return e.history.Entries()
}

// processEditCommand feeds the edit_command value through the parser and
// executor. Failures are converted into the stored last result rather
// than failing the side-effect pass; the model reads the reason from the
// next render.
func (e *WikiEditor) processEditCommand(ctx context.Context, c workspace.Component, snap workspace.Snapshot) error {
	raw, _ := snap[FieldEditCommand].(string)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	before := e.Document()

	cmds, err := editcmd.ParseCommands(raw)
	if err != nil {
		e.recordOutcome(raw, false, err.Error(), 0, before, before)
		return nil
	}
	if len(cmds) == 0 {
		e.recordOutcome(raw, false, "no command found in input", 0, before, before)
		return nil
	}

	// Multiple top-level commands run sequentially over the running
	// document, stopping at the first failure; successful prefixes stay
	// applied.
	content := before
	changes := 0
	for _, cmd := range cmds {
		result := editcmd.Execute(content, cmd)
		content = result.NewContent
		changes += result.Changes
		if !result.Success {
			e.SetStateValue(stateContent, content)
			e.recordOutcome(raw, false, result.Err.Error(), changes, before, content)
			return nil
		}
	}

	e.SetStateValue(stateContent, content)
	count, _ := e.StateValue(stateCommandCount).(int)
	e.SetStateValue(stateCommandCount, count+len(cmds))
	e.recordOutcome(raw, true, "", changes, before, content)
	return nil
}

func (e *WikiEditor) recordOutcome(raw string, success bool, errMsg string, changes int, before, after string) {
	entry := e.history.Record(raw, success, errMsg, changes, before, after)
	if success {
		e.SetStateValue(stateLastResult, fmt.Sprintf("ok: applied %d change(s) (+%d/-%d chars)",
			changes, entry.Additions, entry.Deletions))
	} else {
		e.SetStateValue(stateLastResult, "error: "+errMsg)
	}
	if e.bus != nil {
		e.bus.Publish(events.EventTypeCommandExecuted,
			events.CommandExecutedEvent(e.ID(), success, changes, errMsg))
	}
}

// Render shows the document, the last command outcome and the recent
// history tail.
func (e *WikiEditor) Render(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("Document:\n---\n")
	b.WriteString(e.Document())
	b.WriteString("\n---\n")

	if last := e.LastResult(); last != "" {
		fmt.Fprintf(&b, "Last command result: %s\n", last)
	}

	tail := e.history.Tail(e.historyTail)
	if len(tail) > 0 {
		b.WriteString("Recent commands:\n")
		for _, entry := range tail {
			status := "ok"
			if !entry.Success {
				status = "failed"
			}
			fmt.Fprintf(&b, "- [%s] %s (+%d/-%d)\n", status, summarize(entry.Command), entry.Additions, entry.Deletions)
		}
	}
	return b.String()
}

// ResetContent asks the registry to overwrite the document through the
// validated update path. "content" is not declared editable, so the
// registry rejects the request and the document is left untouched; the
// method is kept for compatibility with existing callers.
// TODO: add an internal content-reset path on the component so this can
// actually work.
func (e *WikiEditor) ResetContent(ctx context.Context, content string) *workspace.UpdateResult {
	registry := e.Registry()
	if registry == nil {
		return &workspace.UpdateResult{
			Failure: workspace.FailureComponentNotFound,
			Error:   "component is not registered",
		}
	}
	return registry.UpdateComponentState(ctx, e.ID(), stateContent, content)
}

// ClearCommandHistory asks the registry to clear the history through the
// validated update path. Like ResetContent it targets a non-editable key
// and therefore never succeeds; kept for compatibility.
func (e *WikiEditor) ClearCommandHistory(ctx context.Context) *workspace.UpdateResult {
	registry := e.Registry()
	if registry == nil {
		return &workspace.UpdateResult{
			Failure: workspace.FailureComponentNotFound,
			Error:   "component is not registered",
		}
	}
	return registry.UpdateComponentState(ctx, e.ID(), "command_history", nil)
}

func summarize(command string) string {
	command = strings.Join(strings.Fields(command), " ")
	if len(command) <= 60 {
		return command
	}
	cut := 57
	for cut > 0 && !utf8.RuneStart(command[cut]) {
		cut--
	}
	return command[:cut] + "..."
}
