// Copyright (c) 2026 The vrfpos developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package syncstatus renders the node's sync-status reply as a
// human-readable duration string, for the RPC collaborator.
package syncstatus

import "fmt"

// units are checked largest-first; only the two most significant
// non-zero units are rendered.
var units = []struct {
	name    string
	seconds uint32
}{
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
	{"second", 1},
}

func plural(n uint32, name string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, name)
	}
	return fmt.Sprintf("%d %ss", n, name)
}

// Humanize renders a duration in seconds as e.g. "2 hours and 3 minutes".
// If seconds is zero, now is returned instead (the caller's "already
// caught up" string).
func Humanize(seconds uint32, now string) string {
	if seconds == 0 {
		return now
	}

	remaining := seconds
	var parts []string
	for _, u := range units {
		n := remaining / u.seconds
		remaining %= u.seconds
		if n == 0 {
			continue
		}
		parts = append(parts, plural(n, u.name))
		if len(parts) == 2 {
			break
		}
	}

	switch len(parts) {
	case 0:
		return now
	case 1:
		return parts[0]
	default:
		return parts[0] + " and " + parts[1]
	}
}
