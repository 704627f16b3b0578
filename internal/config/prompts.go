package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Prompts holds the LLM prompt templates. Templates use {name} placeholders
// filled by Render.
type Prompts struct {
	SystemPrompt              string `json:"system_prompt"`
	ConversationSummaryPrompt string `json:"conversation_summary_prompt"` // {history_text}
	MemoryExtractionPrompt    string `json:"memory_extraction_prompt"`    // {user_message}, {assistant_response}
	InitialCallPrompt         string `json:"initial_call_prompt"`         // {chat_history}
	TitleGenerationPrompt     string `json:"title_generation_prompt"`     // {user_message}
	IntakeClosingMessage      string `json:"intake_closing_message"`
}

// Render substitutes {key} placeholders in the template.
func Render(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// PromptStore provides concurrent access to the prompt templates and supports
// hot reload when the underlying file changes.
type PromptStore struct {
	mu      sync.RWMutex
	path    string
	prompts Prompts
}

// LoadPrompts reads prompt templates from a JSON file.
func LoadPrompts(path string) (*PromptStore, error) {
	store := &PromptStore{path: path}
	if err := store.reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Get returns a snapshot of the current prompt templates.
func (s *PromptStore) Get() Prompts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts
}

func (s *PromptStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read prompts file: %w", err)
	}

	var prompts Prompts
	if err := json.Unmarshal(data, &prompts); err != nil {
		return fmt.Errorf("failed to parse prompts JSON: %w", err)
	}

	if prompts.SystemPrompt == "" || prompts.ConversationSummaryPrompt == "" || prompts.MemoryExtractionPrompt == "" {
		return fmt.Errorf("prompts file %s is missing required templates", s.path)
	}

	s.mu.Lock()
	s.prompts = prompts
	s.mu.Unlock()
	return nil
}

// Watch reloads the prompt file on change. Blocks until the stop channel
// closes; run it in its own goroutine.
func (s *PromptStore) Watch(stop <-chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create prompt file watcher: %v", err)
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", s.path, err)
		return
	}

	// Watch the directory containing the file (more reliable than watching
	// the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", s.path)

	// Debounce timer to avoid multiple reloads for rapid file changes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := s.reload(); err != nil {
						log.Printf("⚠️  Prompt reload failed, keeping previous templates: %v", err)
						return
					}
					log.Printf("🔄 Prompts reloaded from %s", s.path)
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Prompt watcher error: %v", err)
		case <-stop:
			return
		}
	}
}
