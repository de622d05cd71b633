package lib

import (
	"strings"

	"github.com/emersion/go-imap"
)

// HasFlag reports whether flag is in the set, ignoring case as IMAP system flags are case-insensitive.
func HasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}

// IsSeen reports whether the \Seen marker is in the flag set.
func IsSeen(flags []string) bool {
	return HasFlag(flags, imap.SeenFlag)
}

func StripRecentFlag(source []string) []string {
	output := make([]string, 0, len(source))
	for _, flag := range source {
		if flag == imap.RecentFlag {
			continue
		}
		output = append(output, flag)
	}
	return output
}
