package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wjixiang/aikb/pkg/config"
	"github.com/wjixiang/aikb/pkg/wikieditor"
)

func TestBuildWorkspaceFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello"), 0o644))

	ctx := context.Background()
	ws, editor, err := buildWorkspace(ctx, config.Default(), nil, path)
	require.NoError(t, err)
	defer ws.Shutdown(ctx)

	assert.Equal(t, "Hello", editor.Document())

	result := ws.UpdateEditableProps(ctx, wikieditor.FieldEditCommand,
		"<append><content>World</content></append>")
	require.True(t, result.Success)
	assert.Equal(t, "Hello\nWorld", editor.Document())
}

func TestBuildWorkspaceMissingFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	ws, editor, err := buildWorkspace(ctx, config.Default(), nil, filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	defer ws.Shutdown(ctx)

	assert.Equal(t, "", editor.Document())
}

func TestWorkspaceSchemaExposesEditCommand(t *testing.T) {
	ctx := context.Background()
	ws, _, err := buildWorkspace(ctx, config.Default(), nil, "")
	require.NoError(t, err)
	defer ws.Shutdown(ctx)

	props := ws.GetEditablePropsSchema()
	require.Contains(t, props.Fields, wikieditor.FieldEditCommand)
	assert.Equal(t, "wiki-editor", props.Fields[wikieditor.FieldEditCommand].ComponentID)
}
