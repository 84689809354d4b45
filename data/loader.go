package data

import (
	"embed"
	"fmt"
	"path"
	"sort"
)

//go:embed data-files
var dataFilesRoot embed.FS

const dataBasePath = "data-files"

// SourceInfo is the raw JSON or YAML content of one fixture file.
type SourceInfo struct {
	FilePath string
	BaseName string
	Data     []byte
}

func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q: %w", s.BaseName, err)
	}
	return nil
}

// LoadDataFile reads a fixture file. The path is relative to data/data-files.
func LoadDataFile(filePath string) (SourceInfo, error) {
	data, err := dataFilesRoot.ReadFile(path.Join(dataBasePath, filePath))
	if err != nil {
		return SourceInfo{}, fmt.Errorf("failed to read %q: %w", filePath, err)
	}
	return SourceInfo{FilePath: path.Clean(filePath), BaseName: path.Base(filePath), Data: data}, nil
}

// LoadAllDataFiles reads every fixture file in a directory, in name order. The path is relative
// to data/data-files.
func LoadAllDataFiles(dirPath string) ([]SourceInfo, error) {
	files, err := dataFilesRoot.ReadDir(path.Join(dataBasePath, dirPath))
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	var ret []SourceInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		source, err := LoadDataFile(path.Join(dirPath, file.Name()))
		if err != nil {
			return nil, err
		}
		ret = append(ret, source)
	}
	return ret, nil
}
