// Package gomod locates go.mod files and reads module paths from them.
package gomod

import (
	"os"
	"path/filepath"
	"strings"

	werrors "github.com/toyz/weaver/internal/errors"
	"golang.org/x/mod/modfile"
)

// ParseModuleName extracts the module path from a go.mod file
func ParseModuleName(goModPath string) (string, error) {
	cleanPath := filepath.Clean(goModPath)
	if filepath.Base(cleanPath) != "go.mod" {
		return "", werrors.Newf(werrors.InvalidArgumentCode, "file is not a go.mod file: %s", goModPath)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", werrors.WrapFileSystemError("read", cleanPath, err)
	}

	modFile, err := modfile.ParseLax(cleanPath, content, nil)
	if err != nil {
		return "", werrors.WrapConfigurationError("parse", "go.mod file", err).
			WithLocation(werrors.SourceLocation{File: cleanPath})
	}

	if modFile.Module == nil || strings.TrimSpace(modFile.Module.Mod.Path) == "" {
		return "", werrors.New(werrors.ConfigurationErrorCode, "no module declaration found in go.mod").
			WithLocation(werrors.SourceLocation{File: cleanPath})
	}

	return modFile.Module.Mod.Path, nil
}

// FindGoModFile searches for go.mod starting from startDir and walking up
func FindGoModFile(startDir string) (string, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", werrors.Wrap(werrors.FileSystemErrorCode, "failed to resolve directory", err)
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if info, err := os.Stat(goModPath); err == nil && !info.IsDir() {
			return goModPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", werrors.Newf(werrors.FileSystemErrorCode, "go.mod file not found above %s", startDir).
		WithSuggestion("run weaver inside a Go module or pass -module")
}

// ModulePath returns the path of the module enclosing dir
func ModulePath(dir string) (string, error) {
	goModPath, err := FindGoModFile(dir)
	if err != nil {
		return "", err
	}
	return ParseModuleName(goModPath)
}
