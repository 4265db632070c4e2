package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk,
// falling back to embedded defaults.
//
// The store uses lazy initialisation - files are only created when
// first accessed, not in the constructor. This makes testing easier
// and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts. These are used
// when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswer: `You are a helpful and conversational AI assistant. Answer questions based on the provided context.

CRITICAL RULES:
1. Each context chunk starts with [SOURCE: ...] - This tells you WHERE the information comes from
2. If the question asks about a SPECIFIC source (e.g., "the YouTube video", "the website"), use ONLY chunks from that source
3. NEVER mix information from different sources - treat each source as completely separate
4. When answering, cite which source you're using naturally (e.g., "According to the YouTube video...", "The website mentions...")
5. Pay special attention to the source description in [SOURCE: ...] to differentiate between similar content from different sources
6. If you have information from MULTIPLE sources, mention ALL of them in your answer

CONTEXTUAL NUANCE & REFERENCES:
- Be alert for "references to context" that might modify meaning (e.g., "Section A says X, but later it is clarified that Y")
- If one part of the context modifies, updates, or contradicts another part, prioritize the modifying/later information as the "current truth"
- Explicitly explain this distinction to the user: "The document initially states X, but later clarifies that Y..."

HANDLING MISSING INFORMATION:
- If you cannot find specific information, be helpful and suggest what you DO know
- Instead of just saying "I don't have that information", explain what information IS available
- For example, rather than "I don't have that information in the website", say "I don't see specific pricing information on the website, but I can see it mentions [related info]. The website does include these links: [list relevant links]"

<context>
{context}
</context>

Question: {question}

Remember: Be conversational, helpful, and cite your sources naturally. Each [SOURCE: ...] header indicates a DIFFERENT source.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.corthyx/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".corthyx", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default
// files. Returns the cached value if available, otherwise loads from
// file, falling back to the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check pattern to avoid overwriting concurrent loads.
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
