package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"ollamacli/utils/config"
	"ollamacli/utils/fileutil"
)

// ProjectMeta is the metadata stored alongside a saved project.
type ProjectMeta struct {
	Model   string    `yaml:"model"`
	Files   []string  `yaml:"files"`
	SavedAt time.Time `yaml:"saved_at"`
}

// checkProjectName rejects names that would escape the projects directory.
// A project name is a single path element, nothing more.
func checkProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid project name %q: must not contain path separators", name)
	}
	return nil
}

// SaveProject persists the current session under
// ~/.ollamacli/projects/<name>/: metadata, conversation history, and a
// snapshot of every loaded file.
func SaveProject(name string, model string, state *FileState, history *History) error {
	if err := checkProjectName(name); err != nil {
		return err
	}
	projectDir := filepath.Join(config.ProjectsDir(), name)
	filesDir := filepath.Join(projectDir, "files")
	if err := fileutil.EnsureDir(filesDir); err != nil {
		return fmt.Errorf("error creating project directory: %w", err)
	}

	meta := ProjectMeta{
		Model:   model,
		Files:   state.Paths(),
		SavedAt: time.Now(),
	}
	metaData, err := yaml.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("error marshaling project metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "project.yaml"), metaData, 0644); err != nil {
		return fmt.Errorf("error writing project metadata: %w", err)
	}

	histData, err := yaml.Marshal(history.Messages)
	if err != nil {
		return fmt.Errorf("error marshaling history: %w", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "history.yaml"), histData, 0644); err != nil {
		return fmt.Errorf("error writing history: %w", err)
	}

	for _, path := range state.Paths() {
		content, _ := state.Get(path)
		target := filepath.Join(filesDir, path)
		if err := fileutil.WriteFile(target, []byte(content)); err != nil {
			return fmt.Errorf("error snapshotting %s: %w", path, err)
		}
	}

	config.DebugLog("[Project] Saved %q with %d files", name, state.Len())
	return nil
}

// LoadProject restores a saved project into the given state and history,
// replacing their contents. It returns the saved model name.
func LoadProject(name string, state *FileState, history *History) (string, error) {
	if err := checkProjectName(name); err != nil {
		return "", err
	}
	projectDir := filepath.Join(config.ProjectsDir(), name)
	metaData, err := os.ReadFile(filepath.Join(projectDir, "project.yaml"))
	if err != nil {
		return "", fmt.Errorf("project %q not found", name)
	}

	var meta ProjectMeta
	if err := yaml.Unmarshal(metaData, &meta); err != nil {
		return "", fmt.Errorf("error parsing project metadata: %w", err)
	}

	state.Clear()
	history.Clear()

	if histData, err := os.ReadFile(filepath.Join(projectDir, "history.yaml")); err == nil {
		var messages []Message
		if err := yaml.Unmarshal(histData, &messages); err != nil {
			return "", fmt.Errorf("error parsing project history: %w", err)
		}
		history.Messages = messages
	}

	for _, path := range meta.Files {
		snapshot := filepath.Join(projectDir, "files", path)
		data, err := fileutil.SafeReadFile(snapshot)
		if err != nil {
			config.DebugLog("[Project] Missing snapshot for %s, skipping", path)
			continue
		}
		state.Set(path, string(data))
	}

	return meta.Model, nil
}

// ListProjects returns the names of saved projects, sorted.
func ListProjects() ([]string, error) {
	entries, err := os.ReadDir(config.ProjectsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading projects directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// DeleteProject removes a saved project. Deleting a project that does not
// exist is an error so the caller can report the typo.
func DeleteProject(name string) error {
	if err := checkProjectName(name); err != nil {
		return err
	}
	projectDir := filepath.Join(config.ProjectsDir(), name)
	if _, err := os.Stat(projectDir); err != nil {
		return fmt.Errorf("project %q not found", name)
	}
	return os.RemoveAll(projectDir)
}
