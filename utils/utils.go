// Package utils provides small helpers shared across the CLI.
package utils

import (
	"github.com/mitchellh/go-homedir"
)

// ExpandPath expands a tilde-prefixed path into a full home directory path.
func ExpandPath(path string) string {
	s, err := homedir.Expand(path)
	if err == nil {
		return s
	}
	return path
}
