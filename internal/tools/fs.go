package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MaxReadBytes is the largest file read_file_content will return.
const MaxReadBytes = 1 << 20

type pathArgs struct {
	Path string `param:"path"`
}

type transferArgs struct {
	Source      string `param:"source"`
	Destination string `param:"destination"`
}

func absPath(tool, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: path argument is required for %s", ErrMissingParam, tool)
	}
	p, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("invalid path '%s': %w", raw, err)
	}
	return p, nil
}

func decodeTransfer(tool string, params Params) (string, string, error) {
	var args transferArgs
	if err := params.Decode(&args); err != nil {
		return "", "", fmt.Errorf("invalid arguments for %s: %w", tool, err)
	}
	if strings.TrimSpace(args.Source) == "" {
		return "", "", fmt.Errorf("%w: source argument is required for %s", ErrMissingParam, tool)
	}
	if strings.TrimSpace(args.Destination) == "" {
		return "", "", fmt.Errorf("%w: destination argument is required for %s", ErrMissingParam, tool)
	}
	src, err := filepath.Abs(args.Source)
	if err != nil {
		return "", "", fmt.Errorf("invalid source '%s': %w", args.Source, err)
	}
	dst, err := filepath.Abs(args.Destination)
	if err != nil {
		return "", "", fmt.Errorf("invalid destination '%s': %w", args.Destination, err)
	}
	return src, dst, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// --- CreateFileTool ---

// CreateFileTool creates a new file, failing if it already exists.
type CreateFileTool struct{}

func (t *CreateFileTool) Name() string {
	return "create_file"
}

func (t *CreateFileTool) Description() string {
	return "Creates a new text file with specified content. Parameters: 'path' (string, full or relative path including filename), 'content' (string, optional). Missing parent directories are created. Fails if the file already exists."
}

type CreateFileArgs struct {
	Path    string `param:"path"`
	Content string `param:"content"`
}

func (t *CreateFileTool) Execute(ctx context.Context, params Params) (string, error) {
	var args CreateFileArgs
	if err := params.Decode(&args); err != nil {
		return "", fmt.Errorf("invalid arguments for create_file: %w", err)
	}
	path, err := absPath(t.Name(), args.Path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("error creating directory for '%s': %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("file '%s' %w", path, ErrAlreadyExists)
		}
		return "", fmt.Errorf("error creating file '%s': %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(args.Content); err != nil {
		return "", fmt.Errorf("error writing file '%s': %w", path, err)
	}
	return fmt.Sprintf("Successfully created file '%s'.", path), nil
}

// --- ReadFileContentTool ---

// ReadFileContentTool reads the content of a text file.
type ReadFileContentTool struct{}

func (t *ReadFileContentTool) Name() string {
	return "read_file_content"
}

func (t *ReadFileContentTool) Description() string {
	return "Reads the content of a specified text file. Parameters: 'path' (string, full or relative path to the file). Returns the file content or an error message."
}

func (t *ReadFileContentTool) Execute(ctx context.Context, params Params) (string, error) {
	var args pathArgs
	if err := params.Decode(&args); err != nil {
		return "", fmt.Errorf("invalid arguments for read_file_content: %w", err)
	}
	path, err := absPath(t.Name(), args.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("error reading file '%s': %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("'%s' is a directory, not a file", path)
	}
	if info.Size() > MaxReadBytes {
		return "", fmt.Errorf("'%s' is %d bytes: %w (limit %d bytes)", path, info.Size(), ErrFileTooLarge, MaxReadBytes)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading file '%s': %w", path, err)
	}
	if len(content) == 0 {
		return fmt.Sprintf("File '%s' is empty.", path), nil
	}
	return fmt.Sprintf("Content of '%s':\n%s", path, content), nil
}

// --- WriteFileTool ---

// WriteFileTool writes content to a file, overwriting it.
type WriteFileTool struct{}

func (t *WriteFileTool) Name() string {
	return "write_file"
}

func (t *WriteFileTool) Description() string {
	return "Writes or overwrites content to a file. Creates the file if it doesn't exist. Parameters: 'path' (string, full or relative path including filename), 'content' (string, the content to write). Missing parent directories are created."
}

type WriteFileArgs struct {
	Path    string `param:"path"`
	Content string `param:"content"`
}

func (t *WriteFileTool) Execute(ctx context.Context, params Params) (string, error) {
	var args WriteFileArgs
	if err := params.Decode(&args); err != nil {
		return "", fmt.Errorf("invalid arguments for write_file: %w", err)
	}
	path, err := absPath(t.Name(), args.Path)
	if err != nil {
		return "", err
	}
	if _, ok := params["content"]; !ok {
		return "", fmt.Errorf("%w: content argument is required for write_file", ErrMissingParam)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("error creating directory for '%s': %w", path, err)
	}
	if err := os.WriteFile(path, []byte(args.Content), 0o644); err != nil {
		return "", fmt.Errorf("error writing to file '%s': %w", path, err)
	}
	return fmt.Sprintf("Successfully updated file '%s'.", path), nil
}

// --- MoveFileTool ---

// MoveFileTool moves or renames a file or directory.
type MoveFileTool struct{}

func (t *MoveFileTool) Name() string {
	return "move_file"
}

func (t *MoveFileTool) Description() string {
	return "Moves or renames a file or directory. Parameters: 'source' (string, required), 'destination' (string, required). Fails if the destination already exists."
}

func (t *MoveFileTool) Execute(ctx context.Context, params Params) (string, error) {
	src, dst, err := decodeTransfer(t.Name(), params)
	if err != nil {
		return "", err
	}
	if !exists(src) {
		return "", fmt.Errorf("source '%s' does not exist", src)
	}
	if exists(dst) {
		return "", fmt.Errorf("destination '%s' %w", dst, ErrAlreadyExists)
	}
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("error moving '%s' to '%s': %w", src, dst, err)
	}
	return fmt.Sprintf("Successfully moved '%s' to '%s'.", src, dst), nil
}

// --- CopyFileTool ---

// CopyFileTool copies a single file.
type CopyFileTool struct{}

func (t *CopyFileTool) Name() string {
	return "copy_file"
}

func (t *CopyFileTool) Description() string {
	return "Copies a file to a new location. Parameters: 'source' (string, required), 'destination' (string, required). Fails if the destination already exists."
}

func (t *CopyFileTool) Execute(ctx context.Context, params Params) (string, error) {
	src, dst, err := decodeTransfer(t.Name(), params)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("error reading source '%s': %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("source '%s' is not a regular file", src)
	}
	if exists(dst) {
		return "", fmt.Errorf("destination '%s' %w", dst, ErrAlreadyExists)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("error opening source '%s': %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("error creating directory for '%s': %w", dst, err)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("error creating destination '%s': %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("error copying '%s' to '%s': %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("error closing destination '%s': %w", dst, err)
	}
	return fmt.Sprintf("Successfully copied '%s' to '%s'.", src, dst), nil
}

// --- DeleteFileTool ---

// DeleteFileTool deletes a file or an empty directory.
type DeleteFileTool struct{}

func (t *DeleteFileTool) Name() string {
	return "delete_file"
}

func (t *DeleteFileTool) Description() string {
	return "Deletes a file or an empty directory. Parameters: 'path' (string, required - the path to delete)."
}

func (t *DeleteFileTool) Execute(ctx context.Context, params Params) (string, error) {
	var args pathArgs
	if err := params.Decode(&args); err != nil {
		return "", fmt.Errorf("invalid arguments for delete_file: %w", err)
	}
	path, err := absPath(t.Name(), args.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Lstat(path)
	if err != nil {
		return "", fmt.Errorf("error deleting '%s': %w", path, err)
	}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return "", fmt.Errorf("error reading directory '%s': %w", path, err)
		}
		if len(entries) > 0 {
			return "", fmt.Errorf("'%s': %w", path, ErrDirectoryNotEmpty)
		}
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("error deleting '%s': %w", path, err)
	}
	if info.IsDir() {
		return fmt.Sprintf("Successfully deleted directory '%s'.", path), nil
	}
	return fmt.Sprintf("Successfully deleted file '%s'.", path), nil
}

// --- CreateDirectoryTool ---

// CreateDirectoryTool creates a directory and any missing parents.
type CreateDirectoryTool struct{}

func (t *CreateDirectoryTool) Name() string {
	return "create_directory"
}

func (t *CreateDirectoryTool) Description() string {
	return "Creates a new directory (and any parent directories as needed). Parameters: 'path' (string, required - the directory path to create)."
}

func (t *CreateDirectoryTool) Execute(ctx context.Context, params Params) (string, error) {
	var args pathArgs
	if err := params.Decode(&args); err != nil {
		return "", fmt.Errorf("invalid arguments for create_directory: %w", err)
	}
	path, err := absPath(t.Name(), args.Path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Sprintf("Directory '%s' already exists.", path), nil
		}
		return "", fmt.Errorf("'%s' %w and is not a directory", path, ErrAlreadyExists)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("error creating directory '%s': %w", path, err)
	}
	return fmt.Sprintf("Successfully created directory '%s'.", path), nil
}

// --- ListDirectoryTool ---

// ListDirectoryTool lists the contents of a directory.
type ListDirectoryTool struct{}

func (t *ListDirectoryTool) Name() string {
	return "list_directory"
}

func (t *ListDirectoryTool) Description() string {
	return "Lists the contents of a directory (files and subdirectories). Parameters: 'path' (string, required - the directory path), 'pattern' (string, optional glob such as *.go to filter entry names)."
}

type ListDirectoryArgs struct {
	Path    string `param:"path"`
	Pattern string `param:"pattern"`
}

func (t *ListDirectoryTool) Execute(ctx context.Context, params Params) (string, error) {
	var args ListDirectoryArgs
	if err := params.Decode(&args); err != nil {
		return "", fmt.Errorf("invalid arguments for list_directory: %w", err)
	}
	path, err := absPath(t.Name(), args.Path)
	if err != nil {
		return "", err
	}
	if args.Pattern != "" && !doublestar.ValidatePattern(args.Pattern) {
		return "", fmt.Errorf("%w: bad pattern '%s'", ErrInvalidParam, args.Pattern)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("error reading directory '%s': %w", path, err)
	}

	var dirs, files []fs.DirEntry
	for _, entry := range entries {
		if args.Pattern != "" {
			if ok, _ := doublestar.Match(args.Pattern, entry.Name()); !ok {
				continue
			}
		}
		if entry.IsDir() {
			dirs = append(dirs, entry)
		} else {
			files = append(files, entry)
		}
	}
	if len(dirs) == 0 && len(files) == 0 {
		return fmt.Sprintf("Directory '%s' is empty.", path), nil
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	var output strings.Builder
	output.WriteString(fmt.Sprintf("Contents of '%s':\n", path))
	for _, d := range dirs {
		output.WriteString(fmt.Sprintf("[DIR]  %s/\n", d.Name()))
	}
	for _, f := range files {
		info, err := f.Info()
		if err != nil {
			continue // Skip files we can't get info for
		}
		output.WriteString(fmt.Sprintf("[FILE] %s (%s)\n", f.Name(), formatSize(info.Size())))
	}
	output.WriteString(fmt.Sprintf("\nTotal: %d folder(s), %d file(s)", len(dirs), len(files)))
	return output.String(), nil
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// --- FileInfoTool ---

// FileInfoTool reports metadata about a file or directory.
type FileInfoTool struct{}

func (t *FileInfoTool) Name() string {
	return "get_file_info"
}

func (t *FileInfoTool) Description() string {
	return "Gets detailed information about a file or directory (size, dates, attributes). Parameters: 'path' (string, required)."
}

func (t *FileInfoTool) Execute(ctx context.Context, params Params) (string, error) {
	var args pathArgs
	if err := params.Decode(&args); err != nil {
		return "", fmt.Errorf("invalid arguments for get_file_info: %w", err)
	}
	path, err := absPath(t.Name(), args.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Lstat(path)
	if err != nil {
		return "", fmt.Errorf("error reading '%s': %w", path, err)
	}

	kind := "File"
	switch {
	case info.IsDir():
		kind = "Directory"
	case info.Mode()&fs.ModeSymlink != 0:
		kind = "Symlink"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Path: %s\n", path)
	fmt.Fprintf(&b, "Type: %s\n", kind)
	if !info.IsDir() {
		fmt.Fprintf(&b, "Size: %d bytes (%s)\n", info.Size(), formatSize(info.Size()))
	}
	fmt.Fprintf(&b, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Mode: %s", info.Mode().String())
	return b.String(), nil
}
