package builtin

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxListedFiles caps one listing
const maxListedFiles = 500

// skippedDirs are directories never descended into
var skippedDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".idea":        true,
	".vscode":      true,
}

// ListFilesTool lists files under a directory recursively
type ListFilesTool struct {
	workDir string
}

// NewListFilesTool creates a list_files tool rooted at workDir
func NewListFilesTool(workDir string) *ListFilesTool {
	return &ListFilesTool{workDir: workDir}
}

func (t *ListFilesTool) Name() string {
	return "list_files"
}

func (t *ListFilesTool) Description() string {
	return "List files in a directory recursively. Skips version control, dependency and build directories. Returns up to 500 files."
}

func (t *ListFilesTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"directory": map[string]interface{}{
				"type":        "string",
				"description": "Directory to list, relative to the working directory. Default: the working directory itself",
			},
		},
	}
}

func (t *ListFilesTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	rel := "."
	if v, ok := params["directory"].(string); ok && v != "" {
		rel = v
	}
	dir, err := resolveWithin(t.workDir, rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{
				"files": []string{},
				"count": 0,
				"error": fmt.Sprintf("Directory '%s' does not exist", rel),
			}, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return map[string]interface{}{
			"files": []string{},
			"count": 0,
			"error": fmt.Sprintf("Path '%s' is not a directory; use read_file for file contents", rel),
		}, nil
	}

	var files []string
	truncated := false

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && path != dir) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(files) >= maxListedFiles {
			truncated = true
			return filepath.SkipAll
		}
		relPath, relErr := filepath.Rel(t.workDir, path)
		if relErr != nil {
			relPath = path
		}
		files = append(files, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"files":     files,
		"count":     len(files),
		"truncated": truncated,
	}, nil
}
