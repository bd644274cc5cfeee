package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tmplc/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove the tmplc build cache",
	Long:  "Remove the cache directory of the project and, with --all, the generated modules.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().Bool("all", false, "also remove the output directory")
}

func runClean(cmd *cobra.Command, args []string) error {
	baseDir := "."
	if len(args) > 0 && args[0] != "" {
		baseDir = args[0]
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	root, cfg, err := resolveCleanBase(baseDir)
	if err != nil {
		return err
	}
	targets := []string{underRoot(root, cfg.Compile.CacheDir)}
	if all {
		targets = append(targets, underRoot(root, cfg.Package.Out))
	}
	out := cmd.OutOrStdout()
	for _, dir := range targets {
		removed, err := removeDir(dir)
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintf(out, "removed %s\n", formatPathForOutput(root, dir))
		} else {
			fmt.Fprintf(out, "%s not found\n", formatPathForOutput(root, dir))
		}
	}
	return nil
}

func removeDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%q is not a directory", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("failed to remove %q: %w", dir, err)
	}
	return true, nil
}

func resolveCleanBase(base string) (string, project.Config, error) {
	info, err := os.Stat(base)
	if err != nil {
		return "", project.Config{}, fmt.Errorf("failed to stat %q: %w", base, err)
	}
	if !info.IsDir() {
		base = filepath.Dir(base)
	}
	manifest, ok, err := loadProjectManifest(base)
	if err != nil {
		return "", project.Config{}, err
	}
	if ok {
		return manifest.Root, manifest.Config, nil
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		abs = base
	}
	return abs, project.Defaults(), nil
}

func underRoot(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

func formatPathForOutput(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
