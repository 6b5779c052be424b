package harness

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// suiteExt is the extension of test suite files.
const suiteExt = ".xml"

// CollectTestFiles expands paths into suite files. Directories are walked
// for *.xml, skipping those whose name starts with "." or "_"; files named
// explicitly must be suites too.
func CollectTestFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		found, err := collect(path)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func collect(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case !d.IsDir():
			if filepath.Ext(path) == suiteExt {
				files = append(files, path)
			} else if path == root {
				return fmt.Errorf("%s: not a %s test suite", path, suiteExt)
			}
		case path != root && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")):
			return filepath.SkipDir
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
