package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
)

const (
	// QueryShellTimeout is the maximum time allowed for a $(...) query command
	QueryShellTimeout = 30 * time.Second
)

// Shell command pattern: $(command)
var shellPattern = regexp.MustCompile(`^\$\((.+)\)$`)

// Apply runs query against a report value.
// A JMESPath query (e.g. resourceData.resources[?opaque].domain) is evaluated on
// the report's JSON form. A query written as $(command) pipes the JSON to a
// shell command instead. An empty query returns the indented JSON.
func Apply(report any, query string) (string, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if m := shellPattern.FindStringSubmatch(query); len(m) > 1 {
		indented, err := indent(raw)
		if err != nil {
			return "", err
		}
		out, err := runShell(indented, m[1])
		if err != nil {
			return "", fmt.Errorf("failed to execute query shell command: %w", err)
		}
		return out, nil
	}

	// Search over generic JSON so expressions use the camelCase field names
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	result := data
	if query != "" {
		jp, err := jmespath.Compile(query)
		if err != nil {
			return "", fmt.Errorf("invalid JMESPath expression '%s': %w", query, err)
		}
		result, err = jp.Search(data)
		if err != nil {
			return "", fmt.Errorf("JMESPath search failed: %w", err)
		}
	}

	if result == nil {
		return "null", nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(out), nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}

// IsShellCommand checks if a query is a shell command (starts with $(...))
func IsShellCommand(query string) bool {
	return shellPattern.MatchString(query)
}

func indent(raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("failed to indent report: %w", err)
	}
	return buf.String(), nil
}

// runShell executes command with input on stdin
func runShell(input, command string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), QueryShellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := err.Error()
		if stderr.Len() > 0 {
			msg = strings.TrimSpace(stderr.String())
		}
		return "", fmt.Errorf("command '%s' failed: %s", command, msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}
