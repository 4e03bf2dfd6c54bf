package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCreateFileTool(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "new.txt")
	tool := &CreateFileTool{}

	out, err := tool.Execute(ctx, Params{"path": path, "content": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Successfully created file '"+path+"'.", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = tool.Execute(ctx, Params{"path": path, "content": "again"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = tool.Execute(ctx, Params{})
	assert.ErrorIs(t, err, ErrMissingParam)
}

func TestCreateFileTool_EmptyContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	_, err := (&CreateFileTool{}).Execute(context.Background(), Params{"path": path})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestReadFileContentTool(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tool := &ReadFileContentTool{}

	full := filepath.Join(dir, "a.txt")
	writeTestFile(t, full, "contents")
	out, err := tool.Execute(ctx, Params{"path": full})
	require.NoError(t, err)
	assert.Equal(t, "Content of '"+full+"':\ncontents", out)

	empty := filepath.Join(dir, "empty.txt")
	writeTestFile(t, empty, "")
	out, err = tool.Execute(ctx, Params{"path": empty})
	require.NoError(t, err)
	assert.Equal(t, "File '"+empty+"' is empty.", out)

	_, err = tool.Execute(ctx, Params{"path": filepath.Join(dir, "missing.txt")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = tool.Execute(ctx, Params{"path": dir})
	assert.Error(t, err)
}

func TestReadFileContentTool_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.bin")
	writeTestFile(t, path, strings.Repeat("x", MaxReadBytes+1))

	_, err := (&ReadFileContentTool{}).Execute(context.Background(), Params{"path": path})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestWriteFileTool(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "w.txt")
	tool := &WriteFileTool{}

	_, err := tool.Execute(ctx, Params{"path": path, "content": "one"})
	require.NoError(t, err)
	out, err := tool.Execute(ctx, Params{"path": path, "content": "two"})
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully updated file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	_, err = tool.Execute(ctx, Params{"path": path})
	assert.ErrorIs(t, err, ErrMissingParam)
}

func TestMoveFileTool(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeTestFile(t, src, "data")
	tool := &MoveFileTool{}

	_, err := tool.Execute(ctx, Params{"source": src, "destination": dst})
	require.NoError(t, err)
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)

	writeTestFile(t, src, "again")
	_, err = tool.Execute(ctx, Params{"source": src, "destination": dst})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = tool.Execute(ctx, Params{"source": src})
	assert.ErrorIs(t, err, ErrMissingParam)
}

func TestCopyFileTool(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "copy", "dst.txt")
	writeTestFile(t, src, "data")
	tool := &CopyFileTool{}

	_, err := tool.Execute(ctx, Params{"source": src, "destination": dst})
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	assert.FileExists(t, src)

	_, err = tool.Execute(ctx, Params{"source": src, "destination": dst})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = tool.Execute(ctx, Params{"source": dir, "destination": filepath.Join(dir, "x")})
	assert.Error(t, err)
}

func TestDeleteFileTool(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tool := &DeleteFileTool{}

	file := filepath.Join(dir, "f.txt")
	writeTestFile(t, file, "x")
	out, err := tool.Execute(ctx, Params{"path": file})
	require.NoError(t, err)
	assert.Contains(t, out, "deleted file")
	assert.NoFileExists(t, file)

	full := filepath.Join(dir, "full")
	writeTestFile(t, filepath.Join(full, "keep.txt"), "x")
	_, err = tool.Execute(ctx, Params{"path": full})
	assert.ErrorIs(t, err, ErrDirectoryNotEmpty)
	assert.DirExists(t, full)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	out, err = tool.Execute(ctx, Params{"path": empty})
	require.NoError(t, err)
	assert.Contains(t, out, "deleted directory")
}

func TestCreateDirectoryTool(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "a", "b", "c")
	tool := &CreateDirectoryTool{}

	out, err := tool.Execute(ctx, Params{"path": path})
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully created directory")
	assert.DirExists(t, path)

	out, err = tool.Execute(ctx, Params{"path": path})
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestListDirectoryTool(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "b.go"), "package b")
	writeTestFile(t, filepath.Join(dir, "a.txt"), "hi")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zdir"), 0o755))
	tool := &ListDirectoryTool{}

	out, err := tool.Execute(ctx, Params{"path": dir})
	require.NoError(t, err)
	assert.Equal(t, "Contents of '"+dir+"':\n"+
		"[DIR]  zdir/\n"+
		"[FILE] a.txt (2 B)\n"+
		"[FILE] b.go (9 B)\n"+
		"\nTotal: 1 folder(s), 2 file(s)", out)

	out, err = tool.Execute(ctx, Params{"path": dir, "pattern": "*.go"})
	require.NoError(t, err)
	assert.Contains(t, out, "b.go")
	assert.NotContains(t, out, "a.txt")
	assert.Contains(t, out, "Total: 0 folder(s), 1 file(s)")

	_, err = tool.Execute(ctx, Params{"path": dir, "pattern": "[bad"})
	assert.ErrorIs(t, err, ErrInvalidParam)

	emptyDir := filepath.Join(dir, "zdir")
	out, err = tool.Execute(ctx, Params{"path": emptyDir})
	require.NoError(t, err)
	assert.Equal(t, "Directory '"+emptyDir+"' is empty.", out)
}

func TestFileInfoTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info.txt")
	writeTestFile(t, path, "12345")

	out, err := (&FileInfoTool{}).Execute(context.Background(), Params{"path": path})
	require.NoError(t, err)
	assert.Contains(t, out, "Path: "+path)
	assert.Contains(t, out, "Type: File")
	assert.Contains(t, out, "Size: 5 bytes")

	out, err = (&FileInfoTool{}).Execute(context.Background(), Params{"path": dir})
	require.NoError(t, err)
	assert.Contains(t, out, "Type: Directory")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.0 KB", formatSize(1024))
	assert.Equal(t, "1.5 MB", formatSize(1536*1024))
}
