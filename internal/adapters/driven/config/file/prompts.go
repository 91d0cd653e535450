package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaultsFS embed.FS

const (
	defaultsDir = "defaults"
	promptExt   = ".txt"
)

// requiredPlaceholders lists the placeholders a user template must keep.
var requiredPlaceholders = map[string][]string{
	driven.PromptAnswer: {"{{context}}", "{{question}}"},
}

// PromptStore serves prompt templates from a user-editable directory,
// seeding it with the embedded defaults on first use. A missing file falls
// back to its default; a file missing a required placeholder is an error.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at dir.
// If dir is empty, defaults to ~/.ragchat/prompts/. No I/O happens until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".ragchat", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named template.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })

	s.mu.Lock()
	defer s.mu.Unlock()
	if prompt, ok := s.cache[name]; ok {
		return prompt, nil
	}

	prompt, err := s.read(name)
	if err != nil {
		return "", err
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so the next Load reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// read prefers the user's file and falls back to the embedded default.
func (s *PromptStore) read(name string) (string, error) {
	fallback, hasDefault := defaultPrompt(name)

	data, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	switch {
	case err == nil:
	case hasDefault:
		return fallback, nil
	case s.seedErr != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, errors.Join(err, s.seedErr))
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	prompt := strings.TrimSpace(string(data))
	for _, p := range requiredPlaceholders[name] {
		if !strings.Contains(prompt, p) {
			return "", fmt.Errorf("%w: prompt %s%s is missing %s", domain.ErrInvalidInput, name, promptExt, p)
		}
	}
	return prompt, nil
}

// seed creates the directory and writes any default file that is absent.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	entries, err := defaultsFS.ReadDir(defaultsDir)
	if err != nil {
		return fmt.Errorf("read embedded prompts: %w", err)
	}
	for _, e := range entries {
		dst := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(dst); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaultsFS.ReadFile(path.Join(defaultsDir, e.Name()))
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			return fmt.Errorf("write default %s: %w", e.Name(), err)
		}
	}
	return nil
}

func defaultPrompt(name string) (string, bool) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	data, err := defaultsFS.ReadFile(path.Join(defaultsDir, name+promptExt))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}
