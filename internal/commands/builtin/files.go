package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	units "github.com/docker/go-units"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/ChamsBouzaiene/autoloop/internal/commands"
)

// DefaultMaxReadSize caps read_file output.
const DefaultMaxReadSize = "256KB"

var defaultIgnorePatterns = []string{".git", "node_modules"}

// resolve joins path onto root and rejects anything that escapes root.
func resolve(root, path string) (string, error) {
	cleanRoot := filepath.Clean(root)
	full := filepath.Clean(filepath.Join(cleanRoot, path))
	rel, err := filepath.Rel(cleanRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside workspace root", path)
	}
	return full, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// ReadFile returns a command that reads a workspace file, refusing files
// larger than maxSize (a human-readable size such as "256KB").
func ReadFile(root, maxSize string) (commands.Command, error) {
	if maxSize == "" {
		maxSize = DefaultMaxReadSize
	}
	limit, err := units.RAMInBytes(maxSize)
	if err != nil {
		return commands.Command{}, fmt.Errorf("invalid read size limit %q: %w", maxSize, err)
	}

	return commands.Command{
		Name:        "read_file",
		Description: "Read a file from the workspace",
		SchemaJSON: `{"type":"object","properties":{
			"path":{"type":"string","description":"File path relative to the workspace root"}
		},"required":["path"]}`,
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			path := stringArg(args, "path")
			full, err := resolve(root, path)
			if err != nil {
				return "", err
			}
			info, err := os.Stat(full)
			if err != nil {
				return "", err
			}
			if info.IsDir() {
				return "", fmt.Errorf("%s is a directory", path)
			}
			if info.Size() > limit {
				return "", fmt.Errorf("%s is %s, larger than the %s read limit",
					path, units.BytesSize(float64(info.Size())), units.BytesSize(float64(limit)))
			}
			data, err := os.ReadFile(full)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
		Metadata: commands.Metadata{Category: "filesystem", Tags: []string{"read-only", "idempotent"}},
	}, nil
}

// WriteFile returns a command that creates or overwrites a workspace file.
func WriteFile(root string) commands.Command {
	return commands.Command{
		Name:        "write_file",
		Description: "Write text to a file in the workspace, creating parent directories",
		SchemaJSON: `{"type":"object","properties":{
			"path":{"type":"string","description":"File path relative to the workspace root"},
			"text":{"type":"string","description":"Full file content"}
		},"required":["path","text"]}`,
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			path := stringArg(args, "path")
			full, err := resolve(root, path)
			if err != nil {
				return "", err
			}
			if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
				return "", err
			}
			text := stringArg(args, "text")
			if err := os.WriteFile(full, []byte(text), 0644); err != nil {
				return "", err
			}
			return fmt.Sprintf("File %s written (%s).", path, units.HumanSize(float64(len(text)))), nil
		},
		Metadata: commands.Metadata{Category: "filesystem"},
	}
}

// ListFiles returns a command that lists workspace files recursively,
// skipping anything matched by gitignore-style patterns.
func ListFiles(root string) commands.Command {
	return commands.Command{
		Name:        "list_files",
		Description: "List files in a workspace directory",
		SchemaJSON: `{"type":"object","properties":{
			"directory":{"type":"string","description":"Directory relative to the workspace root (empty for root)"},
			"limit":{"type":"integer","description":"Maximum number of files to return. Default: 500"},
			"ignore_patterns":{"type":"array","items":{"type":"string"},"description":"gitignore-style patterns to skip"}
		},"required":[]}`,
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			dir := stringArg(args, "directory")
			limit := intArg(args, "limit", 500)
			var patterns []string
			if raw, ok := args["ignore_patterns"].([]any); ok {
				for _, p := range raw {
					if s, ok := p.(string); ok {
						patterns = append(patterns, s)
					}
				}
			}
			if len(patterns) == 0 {
				patterns = defaultIgnorePatterns
			}
			return listFiles(root, dir, limit, patterns)
		},
		Metadata: commands.Metadata{Category: "filesystem", Tags: []string{"read-only", "idempotent"}},
	}
}

func listFiles(root, dir string, limit int, patterns []string) (string, error) {
	start, err := resolve(root, dir)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(start); err != nil {
		return "", err
	} else if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	matcher := gitignore.CompileIgnoreLines(patterns...)

	files := make([]string, 0)
	truncated := false
	err = filepath.WalkDir(start, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, walkPath)
		if err != nil || walkPath == start {
			return nil
		}
		if matcher.MatchesPath(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if len(files) >= limit {
			truncated = true
			return filepath.SkipAll
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(map[string]any{
		"directory": dir,
		"files":     files,
		"truncated": truncated,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
