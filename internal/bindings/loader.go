package bindings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// BindingFile is one binding configuration file.
type BindingFile struct {
	Bindings []BindingEntry `json:"bindings" yaml:"bindings"`
}

// BindingEntry binds one item to one group address.
type BindingEntry struct {
	Item      string `json:"item" yaml:"item"`
	Address   string `json:"address" yaml:"address"`
	Direction string `json:"direction" yaml:"direction"`
	DPT       string `json:"dpt" yaml:"dpt"`
	Readable  bool   `json:"readable" yaml:"readable"`
}

type Loader struct {
	validator   *Validator
	searchPaths []string
}

func NewLoader(searchPaths []string) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
	}, nil
}

// LoadAll reads and validates every binding file found on the search
// paths. Files are processed in lexical order per path, so lookup
// precedence between files stays stable across reloads.
func (l *Loader) LoadAll() ([]BindingEntry, error) {
	var entries []BindingEntry

	for _, searchPath := range l.searchPaths {
		files, err := l.bindingFiles(searchPath)
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			loaded, err := l.loadFile(file)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", file, err)
			}
			entries = append(entries, loaded...)
		}
	}

	return entries, nil
}

func (l *Loader) bindingFiles(searchPath string) ([]string, error) {
	dirEntries, err := os.ReadDir(searchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bindings directory %s: %w", searchPath, err)
	}

	var files []string
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(searchPath, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

func (l *Loader) loadFile(path string) ([]BindingEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file BindingFile

	if filepath.Ext(path) == ".json" {
		if err := l.validator.ValidateJSON(data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bindings: %w", err)
		}
		return file.Bindings, nil
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := l.validator.ValidateDocument(doc); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bindings: %w", err)
	}

	return file.Bindings, nil
}
