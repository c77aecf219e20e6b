package catalog

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// Ext is the extension of a OneNote section file.
	Ext = ".one"
	// Unnamed labels a section whose file name reduces to nothing.
	Unnamed = "(unnamed)"
	// TrashMarker marks OneNote recycle-bin folders (e.g. OneNote_RecycleBin).
	TrashMarker = "RecycleBin"
)

// dateStampRe matches the " (On 1-4-2026)" suffix OneNote appends to backups.
var dateStampRe = regexp.MustCompile(`\s*\(On \d+-\d+-\d+\)$`)

// BaseKey reduces a backup file name to its logical section name:
//
//	"Algorithm (On 1-4-2026).one"    -> "Algorithm"
//	"Python.one (On 12-6-2025).one"  -> "Python"
func BaseKey(fileName string) string {
	s := strings.TrimSuffix(fileName, Ext)
	s = dateStampRe.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, Ext)
	s = strings.TrimSpace(s)
	if s == "" {
		return Unnamed
	}
	return s
}

// SectionKey derives the key for the file at path inside notebookDir. Files in
// subfolders are prefixed with their slash-joined relative folder.
func SectionKey(notebookDir, path string) string {
	key := BaseKey(filepath.Base(path))
	rel, err := filepath.Rel(notebookDir, filepath.Dir(path))
	if err != nil || rel == "." {
		return key
	}
	return filepath.ToSlash(rel) + "/" + key
}

// inTrash reports whether any segment of rel names a recycle bin.
func inTrash(rel string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.Contains(seg, TrashMarker) {
			return true
		}
	}
	return false
}
