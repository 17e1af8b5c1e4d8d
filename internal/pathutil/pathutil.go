package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultStateDir = "~/.ibra"

func ExpandHomePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func ResolveStateDir(configured string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		configured = defaultStateDir
	}
	return filepath.Clean(ExpandHomePath(configured))
}

func ResolveStateChildDir(stateDir string, childName string, fallbackChild string) string {
	childName = strings.TrimSpace(childName)
	if childName == "" {
		childName = fallbackChild
	}
	return filepath.Join(ResolveStateDir(stateDir), childName)
}

func ResolveStateFile(stateDir string, filename string) string {
	return filepath.Join(ResolveStateDir(stateDir), filename)
}
