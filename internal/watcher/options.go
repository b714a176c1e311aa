package watcher

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const defaultSettle = 100 * time.Millisecond

// Editor droppings that are never worth a reload.
var scratchPatterns = []string{"*.swp", "*.swx", "*.tmp", "*~", "#*#", ".DS_Store"}

// Options selects the files a Watcher reports on.
type Options struct {
	// Extensions limits events to files ending in one of these suffixes,
	// compared case-insensitively. Empty reports every file.
	Extensions []string

	// Skip holds extra base-name globs to drop, on top of editor scratch files.
	Skip []string

	// Settle is how long a file must stay unchanged before it is reported.
	Settle time.Duration

	// Hidden also watches dot files and dot directories.
	Hidden bool
}

func (o Options) withDefaults() Options {
	if o.Settle <= 0 {
		o.Settle = defaultSettle
	}
	exts := make([]string, 0, len(o.Extensions))
	for _, ext := range o.Extensions {
		ext = strings.ToLower(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	o.Extensions = exts
	o.Skip = append(slices.Clone(scratchPatterns), o.Skip...)
	return o
}

// skipped reports whether name (a base name) is excluded outright.
func (o Options) skipped(name string) bool {
	if !o.Hidden && len(name) > 1 && name[0] == '.' && name != ".." {
		return true
	}
	for _, pattern := range o.Skip {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// wantsDir reports whether dir should be descended into.
func (o Options) wantsDir(dir string) bool {
	return !o.skipped(filepath.Base(dir))
}

// wantsFile reports whether changes to path produce events.
func (o Options) wantsFile(path string) bool {
	if o.skipped(filepath.Base(path)) {
		return false
	}
	if len(o.Extensions) == 0 {
		return true
	}
	return slices.Contains(o.Extensions, strings.ToLower(filepath.Ext(path)))
}
