package builtin

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxSearchMatches caps the matches one search returns
const maxSearchMatches = 200

// SearchFilesTool searches for a literal pattern in files
type SearchFilesTool struct {
	workDir string
}

// NewSearchFilesTool creates a search_files tool rooted at workDir
func NewSearchFilesTool(workDir string) *SearchFilesTool {
	return &SearchFilesTool{workDir: workDir}
}

func (t *SearchFilesTool) Name() string {
	return "search_files"
}

func (t *SearchFilesTool) Description() string {
	return "Search for an exact string in files under the working directory. Returns matching lines with file paths and line numbers."
}

func (t *SearchFilesTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "The exact string to search for (case-sensitive)",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Optional relative path to limit the search scope",
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *SearchFilesTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	pattern, err := stringParam(params, "pattern")
	if err != nil {
		return nil, err
	}

	root := t.workDir
	if rel, ok := params["path"].(string); ok && rel != "" {
		root, err = resolveWithin(t.workDir, rel)
		if err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return map[string]interface{}{
			"matches": []string{},
			"error":   "search path does not exist",
		}, nil
	}

	var matches []string
	truncated := false

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if truncated {
			return filepath.SkipAll
		}

		file, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer file.Close()

		relPath, relErr := filepath.Rel(t.workDir, path)
		if relErr != nil {
			relPath = path
		}

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			// Binary sniff: skip files with NUL bytes
			if strings.ContainsRune(line, '\x00') {
				return nil
			}
			if strings.Contains(line, pattern) {
				matches = append(matches, fmt.Sprintf("%s:%d: %s", relPath, lineNum, strings.TrimSpace(line)))
				if len(matches) >= maxSearchMatches {
					truncated = true
					return nil
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"matches":   matches,
		"count":     len(matches),
		"truncated": truncated,
	}, nil
}
