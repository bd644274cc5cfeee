package buildpipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TemplateExt is the extension of template files found in directories.
const TemplateExt = ".tpl"

// CollectFiles expands paths into template files. Directories are walked
// recursively and contribute files ending in TemplateExt; explicit file
// arguments are kept whatever their extension. The result is sorted and
// free of duplicates.
func CollectFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, TemplateExt) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", root, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

// DisplayPath shortens file relative to baseDir when it lies inside it.
func DisplayPath(file, baseDir string) string {
	path := filepath.Clean(file)
	base := strings.TrimSpace(baseDir)
	if base == "" {
		return filepath.ToSlash(path)
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return filepath.ToSlash(path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	if rel, err := filepath.Rel(absBase, absPath); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		path = rel
	}
	return filepath.ToSlash(path)
}

// OutputPath maps a template file to its generated Python module under
// outDir, keeping the layout relative to srcRoot. Dashes and dots in the
// base name become underscores so the module is importable.
func OutputPath(file, srcRoot, outDir string) string {
	rel := filepath.Base(file)
	if srcRoot != "" {
		if r, err := filepath.Rel(srcRoot, file); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	dir, name := filepath.Split(rel)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return filepath.Join(outDir, dir, name+".py")
}
