// Package session owns the in-memory state of one chat session: the files
// loaded into context, the conversation history, and saved projects. The
// file map is the single source of truth the parser fallback, the diff
// original lookup, and the mutator all share; it is passed explicitly and
// only ever written after a successful disk write.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	gitignore "github.com/sabhiram/go-gitignore"

	"ollamacli/utils/config"
	"ollamacli/utils/fileutil"
)

// Message is one turn of the conversation, kept for context and projects.
type Message struct {
	Role    string `yaml:"role"`
	Content string `yaml:"content"`
}

type fileEntry struct {
	content string
	hash    uint64
}

// FileState maps relative paths to the last-known content of loaded files.
// It is not safe for concurrent use; the chat loop is single-threaded.
type FileState struct {
	root  string
	files map[string]fileEntry
}

// NewFileState creates an empty file state rooted at the working directory.
func NewFileState(root string) *FileState {
	return &FileState{
		root:  root,
		files: make(map[string]fileEntry),
	}
}

// Root returns the working directory all relative paths resolve against.
func (s *FileState) Root() string { return s.root }

// Len returns the number of loaded files.
func (s *FileState) Len() int { return len(s.files) }

// Get returns the last-known content for a relative path.
func (s *FileState) Get(path string) (string, bool) {
	e, ok := s.files[path]
	return e.content, ok
}

// Set records content for a relative path. Call this only after the content
// is known to be on disk.
func (s *FileState) Set(path, content string) {
	s.files[path] = fileEntry{content: content, hash: xxhash.Sum64String(content)}
}

// Changed reports whether content differs from the recorded entry, using the
// content hash to avoid comparing large strings.
func (s *FileState) Changed(path, content string) bool {
	e, ok := s.files[path]
	if !ok {
		return true
	}
	return e.hash != xxhash.Sum64String(content)
}

// Paths returns the loaded paths in sorted order.
func (s *FileState) Paths() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clear drops every loaded file.
func (s *FileState) Clear() {
	s.files = make(map[string]fileEntry)
}

// PromptContext renders the loaded files as delimited blocks for inclusion
// in the model prompt. Empty when nothing is loaded.
func (s *FileState) PromptContext() string {
	if len(s.files) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nFILE CONTEXT:\n")
	for _, path := range s.Paths() {
		e := s.files[path]
		fmt.Fprintf(&b, "--- Content of %s ---\n%s\n--- End of %s ---\n\n", path, e.content, path)
	}
	return b.String()
}

// LoadResult summarizes a LoadPath call.
type LoadResult struct {
	Loaded    []string
	Unchanged []string // already in context with identical content
	Skipped   []string // binary or unreadable files
}

// LoadPath loads a file, glob pattern, or directory (recursively) into the
// state. Patterns go through environment and ~ expansion first; absolute
// paths are taken as-is, relative ones resolve against the session root.
// Directory walks honor the root's .gitignore and always skip .git. Binary
// files are skipped rather than reported as errors, and reloading a file
// whose content has not changed is reported instead of re-recorded.
func (s *FileState) LoadPath(pattern string) (*LoadResult, error) {
	expanded, err := fileutil.ExpandPath(pattern)
	if err != nil {
		return nil, fmt.Errorf("cannot expand path %q: %w", pattern, err)
	}
	pattern = expanded

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(s.root, p)
	}

	var candidates []string
	switch {
	case strings.ContainsAny(pattern, "*?["):
		matches, err := filepath.Glob(resolve(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err == nil && !info.IsDir() {
				candidates = append(candidates, m)
			}
		}
	default:
		abs := resolve(pattern)
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("path %s does not exist", pattern)
		}
		if info.IsDir() {
			candidates, err = s.walkDir(abs)
			if err != nil {
				return nil, err
			}
		} else {
			candidates = []string{abs}
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no files found for %q", pattern)
	}
	sort.Strings(candidates)

	result := &LoadResult{}
	for _, abs := range candidates {
		rel := fileutil.RelativeTo(s.root, abs)
		data, err := fileutil.SafeReadFile(abs)
		if err != nil || !fileutil.IsTextContent(data) {
			config.DebugLog("[Session] Skipping %s: binary or unreadable", rel)
			result.Skipped = append(result.Skipped, rel)
			continue
		}
		content := string(data)
		if _, ok := s.Get(rel); ok && !s.Changed(rel, content) {
			result.Unchanged = append(result.Unchanged, rel)
			continue
		}
		s.Set(rel, content)
		result.Loaded = append(result.Loaded, rel)
	}
	return result, nil
}

// walkDir collects file paths under dir, honoring .gitignore rules found at
// the session root.
func (s *FileState) walkDir(dir string) ([]string, error) {
	var rules *gitignore.GitIgnore
	if compiled, err := gitignore.CompileIgnoreFile(filepath.Join(s.root, ".gitignore")); err == nil {
		rules = compiled
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := fileutil.RelativeTo(s.root, path)
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if rules != nil && rel != "." && rules.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if rules != nil && rules.MatchesPath(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", dir, err)
	}
	return files, nil
}

// History is the running conversation, oldest first.
type History struct {
	Messages []Message
}

// Add appends one message.
func (h *History) Add(role, content string) {
	h.Messages = append(h.Messages, Message{Role: role, Content: content})
}

// Clear drops all messages.
func (h *History) Clear() {
	h.Messages = nil
}
