package utils

import (
	"regexp"
	"strings"
)

// fileNameRegex matches anything that is not safe inside a generated file name.
var fileNameRegex = regexp.MustCompile(`[^a-z0-9_-]+`)

// SanitizeFileName turns a site display name into a file name fragment:
// lowercased, spaces to underscores, everything else unsafe stripped.
func SanitizeFileName(name string) string {
	clean := strings.ToLower(strings.TrimSpace(name))
	clean = strings.ReplaceAll(clean, " ", "_")
	return fileNameRegex.ReplaceAllString(clean, "")
}

// UniqueStrings returns the slice with duplicates removed, keeping the
// first occurrence of each value in its original position.
func UniqueStrings(slice []string) []string {
	seen := make(map[string]bool)
	unique := []string{}
	for _, entry := range slice {
		if !seen[entry] {
			seen[entry] = true
			unique = append(unique, entry)
		}
	}
	return unique
}
