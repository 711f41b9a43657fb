// Package llmtest provides scripted generators for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"
)

// Fake answers prompts from a script. A Rule matches when every one of its
// Contains substrings occurs in the prompt; the first matching rule wins.
// Unmatched prompts get Default, or Err when set.
type Fake struct {
	Rules   []Rule
	Default string
	Err     error

	mu      sync.Mutex
	prompts []string
}

type Rule struct {
	Contains []string
	Response string
	Err      error
}

func (f *Fake) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	for _, r := range f.Rules {
		if matches(prompt, r.Contains) {
			return r.Response, r.Err
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Default, nil
}

// Prompts returns every prompt received so far.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

// Calls returns the number of prompts received.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func matches(prompt string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(prompt, p) {
			return false
		}
	}
	return true
}
