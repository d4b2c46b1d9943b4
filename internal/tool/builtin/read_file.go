package builtin

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// maxReadLines caps how many lines one read returns
const maxReadLines = 500

// ReadFileTool reads file contents with optional pagination
type ReadFileTool struct {
	workDir string
}

// NewReadFileTool creates a read_file tool rooted at workDir
func NewReadFileTool(workDir string) *ReadFileTool {
	return &ReadFileTool{workDir: workDir}
}

func (t *ReadFileTool) Name() string {
	return "read_file"
}

func (t *ReadFileTool) Description() string {
	return "Read the contents of a file. Reads up to 200 lines by default; use start_line and line_count for pagination."
}

func (t *ReadFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file, relative to the working directory",
			},
			"start_line": map[string]interface{}{
				"type":        "integer",
				"description": "Starting line number (1-indexed). Default: 1",
			},
			"line_count": map[string]interface{}{
				"type":        "integer",
				"description": "Number of lines to read. Default: 200",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	rel, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	path, err := resolveWithin(t.workDir, rel)
	if err != nil {
		return nil, err
	}

	startLine := intParam(params, "start_line", 1)
	if startLine < 1 {
		startLine = 1
	}
	lineCount := intParam(params, "line_count", 200)
	if lineCount < 1 || lineCount > maxReadLines {
		lineCount = maxReadLines
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{
				"error": fmt.Sprintf("File '%s' does not exist", rel),
			}, nil
		}
		return nil, err
	}
	defer file.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	returned := 0
	truncated := false
	for scanner.Scan() {
		lineNum++
		if lineNum < startLine {
			continue
		}
		if returned >= lineCount {
			truncated = true
			break
		}
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
		returned++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"path":       rel,
		"start_line": startLine,
		"lines":      returned,
		"truncated":  truncated,
		"content":    sb.String(),
	}, nil
}
