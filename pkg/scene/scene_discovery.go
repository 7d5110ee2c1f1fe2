package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to YAML file (file type only)
}

// ListScenes returns the builtin scenes followed by the YAML scenes found in dir
func ListScenes(dir string) ([]SceneInfo, error) {
	scenes := make([]SceneInfo, 0, len(builtins))
	for _, name := range BuiltinNames() {
		scenes = append(scenes, SceneInfo{
			ID:          name,
			Name:        name,
			Description: builtins[name].description,
			Group:       "Builtin",
			Type:        "builtin",
		})
	}

	files, err := ListSceneFiles(dir)
	if err != nil {
		return nil, err
	}
	return append(scenes, files...), nil
}

// ListSceneFiles scans dir for *.yaml and *.yml scene files.
// A missing directory yields an empty list.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if dir == "" {
		return []SceneInfo{}, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	var scenes []SceneInfo
	for _, path := range files {
		info, err := ParseSceneMetadata(path)
		if err != nil {
			// Skip unreadable files but keep listing the rest
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes, nil
}

// ParseSceneMetadata reads the header fields of a YAML scene file
func ParseSceneMetadata(path string) (SceneInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SceneInfo{}, err
	}

	var header struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Group       string `yaml:"group"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return SceneInfo{}, fmt.Errorf("%w: %s: %v", ErrInvalidScene, path, err)
	}

	id := sceneNameFromPath(path)
	name := header.Name
	if name == "" {
		name = id
	}
	group := header.Group
	if group == "" {
		group = "Files"
	}

	return SceneInfo{
		ID:          id,
		Name:        name,
		Description: header.Description,
		Group:       group,
		Type:        "file",
		FilePath:    path,
	}, nil
}

// Resolve creates a scene from a builtin name, a YAML file path, or the ID of a file in dir
func Resolve(nameOrPath, dir string, width, height float64) (*Scene, error) {
	if nameOrPath == "" {
		return nil, fmt.Errorf("%w: empty scene name", ErrUnknownScene)
	}
	if _, ok := builtins[nameOrPath]; ok {
		return NewBuiltin(nameOrPath, width, height)
	}

	ext := strings.ToLower(filepath.Ext(nameOrPath))
	if ext == ".yaml" || ext == ".yml" {
		return LoadFile(nameOrPath)
	}

	files, err := ListSceneFiles(dir)
	if err != nil {
		return nil, err
	}
	for _, info := range files {
		if info.ID == nameOrPath {
			return LoadFile(info.FilePath)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, nameOrPath)
}

func sceneNameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
