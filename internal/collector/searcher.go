package collector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	apperrors "anyumarket/internal/errors"
)

// SearchResult is one hit returned by the search capability
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Text is the string scanned for prices.
func (r SearchResult) Text() string {
	return r.Title + " " + r.Snippet
}

// Searcher returns ranked results for a query.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]SearchResult, error)
}

// CommandSearcher shells out to a search CLI invoked as
// "<command> [args...] search --query Q --count N".
type CommandSearcher struct {
	Command string
	Args    []string
}

// NewCommandSearcher creates a searcher backed by an external command.
func NewCommandSearcher(command string, args ...string) *CommandSearcher {
	return &CommandSearcher{Command: command, Args: args}
}

// Search runs the command and parses its line-oriented output.
func (s *CommandSearcher) Search(ctx context.Context, query string, count int) ([]SearchResult, error) {
	args := append([]string{}, s.Args...)
	args = append(args, "search", "--query", query, "--count", strconv.Itoa(count))

	cmd := exec.CommandContext(ctx, s.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, apperrors.NewNetworkError("search command failed",
			fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
	}
	return ParseSearchOutput(out), nil
}

// ParseSearchOutput reads the CLI output format: every line starting with
// "http" is a result URL, the line before it is the title and the line after
// it is the snippet.
func ParseSearchOutput(out []byte) []SearchResult {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	var results []SearchResult
	for i, line := range lines {
		if !strings.HasPrefix(line, "http") {
			continue
		}
		r := SearchResult{URL: strings.TrimSpace(line)}
		if i > 0 {
			r.Title = lines[i-1]
		}
		if i+1 < len(lines) {
			r.Snippet = lines[i+1]
		}
		results = append(results, r)
	}
	return results
}

// FixtureSearcher serves canned results keyed by query. It backs offline
// runs and tests.
type FixtureSearcher struct {
	Results map[string][]SearchResult
}

// LoadFixtureSearcher reads a JSON document of the form
// {"query": [{"title": ..., "url": ..., "snippet": ...}]}.
func LoadFixtureSearcher(path string) (*FixtureSearcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search fixtures: %w", err)
	}
	var results map[string][]SearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse search fixtures: %w", err)
	}
	return &FixtureSearcher{Results: results}, nil
}

// Search returns at most count fixture results for the query.
func (s *FixtureSearcher) Search(ctx context.Context, query string, count int) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := s.Results[query]
	if count > 0 && len(results) > count {
		results = results[:count]
	}
	return results, nil
}
