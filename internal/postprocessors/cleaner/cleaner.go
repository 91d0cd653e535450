// Package cleaner removes blank lines and recurring boilerplate from source text.
package cleaner

import (
	"context"
	"strings"
)

// Cleaner drops empty lines and lines that exactly match a blocklist entry.
// Matching happens after trimming surrounding whitespace and is case-sensitive.
type Cleaner struct {
	blocked map[string]struct{}
}

// New creates a cleaner for the given blocklist.
func New(blocklist []string) *Cleaner {
	blocked := make(map[string]struct{}, len(blocklist))
	for _, phrase := range blocklist {
		if p := strings.TrimSpace(phrase); p != "" {
			blocked[p] = struct{}{}
		}
	}
	return &Cleaner{blocked: blocked}
}

// Name returns the filter name.
func (c *Cleaner) Name() string {
	return "cleaner"
}

// Filter returns the kept lines, trimmed and joined with "\n".
func (c *Cleaner) Filter(ctx context.Context, text string) (string, error) {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		line = strings.TrimSpace(line)
		if line == "" || c.Blocked(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), nil
}

// Blocked reports whether a trimmed line is on the blocklist.
func (c *Cleaner) Blocked(line string) bool {
	_, ok := c.blocked[line]
	return ok
}
