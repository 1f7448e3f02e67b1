package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TranscriptInfo describes a saved transcript file.
type TranscriptInfo struct {
	ID      string
	ModTime time.Time
	Size    int64
}

// TranscriptStore provides file operations for saved chat transcripts.
// Files are named <id>.json; parsing is left to the service layer.
type TranscriptStore struct {
	dir string
}

// NewTranscriptStore creates a TranscriptStore in dir, or in the default
// directory when dir is empty.
func NewTranscriptStore(dir string) *TranscriptStore {
	if dir == "" {
		dir = GetTranscriptsDirPath()
	}
	return &TranscriptStore{dir: dir}
}

// GetDir returns the transcript directory path.
func (t *TranscriptStore) GetDir() string {
	return t.dir
}

// List returns all transcripts sorted by modification time (newest first).
func (t *TranscriptStore) List() ([]TranscriptInfo, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TranscriptInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read transcript directory: %w", err)
	}

	var infos []TranscriptInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, TranscriptInfo{
			ID:      strings.TrimSuffix(entry.Name(), ".json"),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModTime.After(infos[j].ModTime)
	})
	return infos, nil
}

// Resolve finds the transcript whose id is id or starts with it. An
// ambiguous prefix is an error.
func (t *TranscriptStore) Resolve(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("transcript id is empty")
	}
	if t.Exists(id) {
		return id, nil
	}
	infos, err := t.List()
	if err != nil {
		return "", err
	}
	var found []string
	for _, info := range infos {
		if strings.HasPrefix(info.ID, id) {
			found = append(found, info.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("transcript '%s' not found", id)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("transcript id '%s' is ambiguous (%d matches)", id, len(found))
	}
}

// Load reads a transcript file by id and returns raw bytes.
func (t *TranscriptStore) Load(id string) ([]byte, error) {
	data, err := os.ReadFile(t.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transcript '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return data, nil
}

// Save writes a transcript file.
func (t *TranscriptStore) Save(id string, data []byte) error {
	if err := os.MkdirAll(t.dir, 0750); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return os.WriteFile(t.path(id), data, 0644)
}

// Delete removes a transcript file.
func (t *TranscriptStore) Delete(id string) error {
	err := os.Remove(t.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

// DeleteAll removes all transcript files and returns how many were removed.
func (t *TranscriptStore) DeleteAll() (int, error) {
	infos, err := t.List()
	if err != nil {
		return 0, err
	}
	for i, info := range infos {
		if err := t.Delete(info.ID); err != nil {
			return i, err
		}
	}
	return len(infos), nil
}

// Exists checks if a transcript exists.
func (t *TranscriptStore) Exists(id string) bool {
	_, err := os.Stat(t.path(id))
	return err == nil
}

func (t *TranscriptStore) path(id string) string {
	return filepath.Join(t.dir, sanitizeFileName(id)+".json")
}

// sanitizeFileName replaces characters that are not safe in file names.
func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
