package editcmd

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestExecuteInsert(t *testing.T) {
	tests := []struct {
		name    string
		content string
		cmd     *InsertCommand
		want    string
		wantErr string
	}{
		{
			name:    "insert at position",
			content: "Hello World",
			cmd:     &InsertCommand{Position: intp(5), Content: ","},
			want:    "Hello, World",
		},
		{
			name:    "negative position clamps to start",
			content: "abc",
			cmd:     &InsertCommand{Position: intp(-3), Content: "X"},
			want:    "Xabc",
		},
		{
			name:    "oversized position clamps to end",
			content: "abc",
			cmd:     &InsertCommand{Position: intp(99), Content: "X"},
			want:    "abcX",
		},
		{
			name:    "insert after marker",
			content: "Hello World",
			cmd:     &InsertCommand{After: "Hello", Content: " there"},
			want:    "Hello there World",
		},
		{
			name:    "insert before marker",
			content: "Hello World",
			cmd:     &InsertCommand{Before: "World", Content: "big "},
			want:    "Hello big World",
		},
		{
			name:    "missing after marker",
			content: "Hello World",
			cmd:     &InsertCommand{After: "Goodbye", Content: "x"},
			wantErr: "could not find text to insert after",
		},
		{
			name:    "missing before marker",
			content: "Hello World",
			cmd:     &InsertCommand{Before: "Goodbye", Content: "x"},
			wantErr: "could not find text to insert before",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Execute(tt.content, tt.cmd)
			if tt.wantErr != "" {
				assert.False(t, result.Success)
				require.Error(t, result.Err)
				assert.Contains(t, result.Err.Error(), tt.wantErr)
				assert.Equal(t, tt.content, result.NewContent)
				return
			}
			require.True(t, result.Success)
			assert.Equal(t, tt.want, result.NewContent)
			assert.Equal(t, 1, result.Changes)
			assert.Equal(t, tt.content, result.PreviousContent)
		})
	}
}

func TestExecuteReplace(t *testing.T) {
	result := Execute("Hello World Hello", &ReplaceCommand{
		Search: "Hello", Replace: "Hi", ReplaceAll: true, CaseSensitive: true,
	})
	require.True(t, result.Success)
	assert.Equal(t, "Hi World Hi", result.NewContent)
	assert.Equal(t, 2, result.Changes)

	result = Execute("Hello World Hello", &ReplaceCommand{
		Search: "Hello", Replace: "Hi", CaseSensitive: true,
	})
	require.True(t, result.Success)
	assert.Equal(t, "Hi World Hello", result.NewContent)
	assert.Equal(t, 1, result.Changes)

	result = Execute("Hello World", &ReplaceCommand{
		Search: "hello", Replace: "Hi", CaseSensitive: false,
	})
	require.True(t, result.Success)
	assert.Equal(t, "Hi World", result.NewContent)

	result = Execute("Hello World", &ReplaceCommand{
		Search: "hello", Replace: "Hi", CaseSensitive: true,
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Err.Error(), "search text not found")
}

func TestExecuteDelete(t *testing.T) {
	result := Execute("Hello World", &DeleteCommand{Start: intp(0), End: intp(5)})
	require.True(t, result.Success)
	assert.Equal(t, " World", result.NewContent)

	result = Execute("a b a b a", &DeleteCommand{Search: "a", DeleteAll: true, CaseSensitive: true})
	require.True(t, result.Success)
	assert.Equal(t, " b  b ", result.NewContent)
	assert.Equal(t, 3, result.Changes)

	result = Execute("a b a", &DeleteCommand{Search: "a", CaseSensitive: true})
	require.True(t, result.Success)
	assert.Equal(t, " b a", result.NewContent)

	result = Execute("abc", &DeleteCommand{Search: "zzz", CaseSensitive: true})
	assert.False(t, result.Success)

	result = Execute("abc", &DeleteCommand{Start: intp(1), End: intp(99)})
	require.True(t, result.Success)
	assert.Equal(t, "a", result.NewContent)
}

func TestExecuteAppendNewlinePolicy(t *testing.T) {
	result := Execute("A", &AppendCommand{Content: "B", NewLine: true})
	require.True(t, result.Success)
	result = Execute(result.NewContent, &AppendCommand{Content: "C", NewLine: true})
	require.True(t, result.Success)
	assert.Equal(t, "A\nB\nC", result.NewContent)

	// No doubled separator when the join point already has a newline.
	result = Execute("A\n", &AppendCommand{Content: "B", NewLine: true})
	assert.Equal(t, "A\nB", result.NewContent)

	result = Execute("A", &AppendCommand{Content: "\nB", NewLine: true})
	assert.Equal(t, "A\nB", result.NewContent)

	result = Execute("A", &AppendCommand{Content: "B", NewLine: false})
	assert.Equal(t, "AB", result.NewContent)

	result = Execute("", &AppendCommand{Content: "B", NewLine: true})
	assert.Equal(t, "B", result.NewContent)
}

func TestExecutePrepend(t *testing.T) {
	result := Execute("body", &PrependCommand{Content: "title", NewLine: true})
	require.True(t, result.Success)
	assert.Equal(t, "title\nbody", result.NewContent)

	result = Execute("body", &PrependCommand{Content: "title\n", NewLine: true})
	assert.Equal(t, "title\nbody", result.NewContent)

	result = Execute("body", &PrependCommand{Content: "x", NewLine: false})
	assert.Equal(t, "xbody", result.NewContent)
}

func TestExecuteMoveLeavesResidualGap(t *testing.T) {
	// Note: move leaves the separator from the original position behind,
	// so "Hello World" becomes "World Hello " rather than "World Hello".
	result := Execute("Hello World", &MoveCommand{Search: "World", Position: intp(0)})
	require.True(t, result.Success)
	assert.Equal(t, "WorldHello ", result.NewContent)

	result = Execute("a b c", &MoveCommand{Search: "c", Before: "a"})
	require.True(t, result.Success)
	assert.Equal(t, "ca b ", result.NewContent)

	result = Execute("a b", &MoveCommand{Search: "zzz", Position: intp(0)})
	assert.False(t, result.Success)
	assert.Contains(t, result.Err.Error(), "search text not found")
}

func TestExecuteCopy(t *testing.T) {
	result := Execute("Hello World", &CopyCommand{Search: "Hello", After: "World"})
	require.True(t, result.Success)
	assert.Equal(t, "Hello WorldHello", result.NewContent)
	assert.Equal(t, 1, result.Changes)

	// Copy keeps the original occurrence in place.
	assert.Contains(t, result.NewContent[:5], "Hello")
}

func TestExecuteBatchFailFast(t *testing.T) {
	batch := &BatchCommand{
		StopOnError: true,
		Commands: []Command{
			&AppendCommand{Content: "X", NewLine: true},
			&DeleteCommand{Search: "nonexistent", CaseSensitive: true},
			&AppendCommand{Content: "Y", NewLine: true},
		},
	}

	result := Execute("base", batch)
	assert.False(t, result.Success)
	require.Error(t, result.Err)
	assert.Equal(t, "base\nX", result.NewContent)
	assert.Equal(t, 1, result.Changes)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
}

func TestExecuteBatchContinueOnError(t *testing.T) {
	batch := &BatchCommand{
		StopOnError: false,
		Commands: []Command{
			&AppendCommand{Content: "X", NewLine: true},
			&DeleteCommand{Search: "nonexistent", CaseSensitive: true},
			&AppendCommand{Content: "Y", NewLine: true},
		},
	}

	result := Execute("base", batch)
	assert.True(t, result.Success)
	assert.NoError(t, result.Err)
	assert.Equal(t, "base\nX\nY", result.NewContent)
	assert.Equal(t, 2, result.Changes)
	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[1].Success)
}

func TestExecuteBatchCumulativeContent(t *testing.T) {
	batch := &BatchCommand{
		StopOnError: true,
		Commands: []Command{
			&AppendCommand{Content: "one", NewLine: true},
			&ReplaceCommand{Search: "one", Replace: "two", CaseSensitive: true},
		},
	}

	result := Execute("", batch)
	require.True(t, result.Success)
	assert.Equal(t, "two", result.NewContent)
	assert.Equal(t, 2, result.Changes)
}

func TestCaseInsensitiveMatchingOverMultibyteRunes(t *testing.T) {
	// Offsets must refer to the original string: case-mapping "İ" changes
	// its byte length, so matching over a lowered copy would splice into
	// the middle of a rune.
	result := Execute("İİİ tail", &ReplaceCommand{Search: "TAIL", Replace: "x", CaseSensitive: false})
	require.True(t, result.Success)
	assert.Equal(t, "İİİ x", result.NewContent)
	assert.True(t, utf8.ValidString(result.NewContent))

	result = Execute("Ärger ärger", &ReplaceCommand{Search: "äRGER", Replace: "Ruhe", ReplaceAll: true, CaseSensitive: false})
	require.True(t, result.Success)
	assert.Equal(t, "Ruhe Ruhe", result.NewContent)
	assert.Equal(t, 2, result.Changes)

	result = Execute("İİİ tail", &DeleteCommand{Search: "TAIL", CaseSensitive: false})
	require.True(t, result.Success)
	assert.Equal(t, "İİİ ", result.NewContent)
	assert.True(t, utf8.ValidString(result.NewContent))
}
