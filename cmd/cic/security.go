package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SecurityValidator validates CLI-supplied paths before they ever reach
// the parser. The parser itself trusts whatever string it is handed; all
// path hygiene lives here, at the one real system boundary.
type SecurityValidator struct {
	allowedExtensions []string
	maxPathLength     int
	blockedPatterns   []string
}

func NewSecurityValidator() *SecurityValidator {
	return &SecurityValidator{
		allowedExtensions: []string{".ci"},
		maxPathLength:     4096,
		blockedPatterns: []string{
			"..",
			"~",
			"/etc/", "/proc/", "/sys/",
			"/bin/", "/sbin/", "/usr/", "/var/", "/dev/",
			"C:\\Windows\\", "C:\\Program Files\\",
			"\\windows\\", "\\program files\\",
		},
	}
}

// ValidateInputFile rejects paths that are too long, attempt traversal
// into sensitive directories, or don't carry the ".ci" extension.
func (sv *SecurityValidator) ValidateInputFile(filename string) error {
	if len(filename) > sv.maxPathLength {
		return fmt.Errorf("path too long: %d characters (max: %d)", len(filename), sv.maxPathLength)
	}
	if strings.Contains(filename, "..") {
		return fmt.Errorf("blocked pattern in path '..': %s", filename)
	}

	absPath, err := filepath.Abs(filepath.Clean(filename))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	for _, pattern := range sv.blockedPatterns {
		if strings.Contains(strings.ToLower(filename), strings.ToLower(pattern)) ||
			strings.Contains(strings.ToLower(absPath), strings.ToLower(pattern)) {
			return fmt.Errorf("blocked pattern in path %q: %s", pattern, filename)
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range sv.allowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("invalid file extension %q, allowed: %v", ext, sv.allowedExtensions)
}

// ValidateOutputPath rejects the same traversal/length patterns for an
// explicit --out destination; an empty path (stdout) is always allowed.
func (sv *SecurityValidator) ValidateOutputPath(outputPath string) error {
	if outputPath == "" {
		return nil
	}
	if len(outputPath) > sv.maxPathLength {
		return fmt.Errorf("output path too long: %d characters (max: %d)", len(outputPath), sv.maxPathLength)
	}
	if strings.Contains(outputPath, "..") {
		return fmt.Errorf("blocked pattern in output path '..': %s", outputPath)
	}

	absPath, err := filepath.Abs(filepath.Clean(outputPath))
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	for _, pattern := range sv.blockedPatterns {
		if strings.Contains(strings.ToLower(outputPath), strings.ToLower(pattern)) ||
			strings.Contains(strings.ToLower(absPath), strings.ToLower(pattern)) {
			return fmt.Errorf("blocked pattern in output path %q: %s", pattern, outputPath)
		}
	}
	return nil
}
