package ansi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// paramSummary derives the short "[...]" suffix appended to a tool's start
// line from its JSON-pretty input payload, using tool-name heuristics (spec
// §4.5.1). Tool families are matched by substring on the name since vendor
// dialects don't standardize tool-name casing or namespacing.
func paramSummary(toolName, prettyInput string) string {
	if prettyInput == "" {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(prettyInput), &fields); err != nil {
		return ""
	}

	lname := strings.ToLower(toolName)
	switch {
	case strings.Contains(lname, "write"):
		if fp, ok := fields["file_path"].(string); ok {
			return "→ " + fp
		}
	case strings.Contains(lname, "bash") || strings.Contains(lname, "shell") || strings.Contains(lname, "exec"):
		if cmd, ok := fields["command"].(string); ok {
			return "→ " + truncateRunes(cmd, 60)
		}
	case strings.Contains(lname, "read"):
		if fp, ok := fields["file_path"].(string); ok {
			if limit, ok := fields["limit"].(float64); ok {
				return fmt.Sprintf("→ %s (%d lines)", fp, int(limit))
			}
			return "→ " + fp
		}
	case strings.Contains(lname, "grep") || strings.Contains(lname, "search"):
		pattern, hasPattern := fields["pattern"].(string)
		path, hasPath := fields["path"].(string)
		if hasPattern && hasPath {
			return fmt.Sprintf("→ %q in %s", pattern, path)
		}
		if hasPattern {
			return fmt.Sprintf("→ %q", pattern)
		}
	}
	return ""
}
