package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muesli/gitcha"
)

// DefaultExtensions are the audio extension groups, in scan order.
var DefaultExtensions = []string{"wav", "flac", "mp3"}

// Discover returns the audio files in dir. Extension groups are scanned in
// the order given; within a group files are sorted by path. Names starting
// with a dot are skipped, as a shell glob would. With recursive set,
// subdirectories are walked too and .gitignore rules apply.
func Discover(dir string, extensions []string, recursive bool) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	st, err := os.Stat(dir)
	if err != nil {
		return nil, FileSystemError(dir, "unable to stat directory", err)
	}
	if !st.IsDir() {
		return nil, FileSystemError(dir, "not a directory", nil)
	}

	if recursive {
		return discoverTree(dir, extensions)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, FileSystemError(dir, "unable to read directory", err)
	}

	var paths []string
	for _, ext := range extensions {
		pattern := "*." + strings.TrimPrefix(ext, ".")
		for _, e := range entries {
			if e.IsDir() || hidden(e.Name()) {
				continue
			}
			if ok, _ := filepath.Match(pattern, e.Name()); ok {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	}
	return paths, nil
}

func discoverTree(dir string, extensions []string) ([]string, error) {
	var paths []string
	for _, ext := range extensions {
		pattern := "*." + strings.TrimPrefix(ext, ".")
		ch, err := gitcha.FindFiles(dir, []string{pattern})
		if err != nil {
			return nil, FileSystemError(dir, "unable to walk directory", err)
		}
		var group []string
		for res := range ch {
			if res.Info != nil && res.Info.IsDir() {
				continue
			}
			if hiddenPath(dir, res.Path) {
				continue
			}
			group = append(group, res.Path)
		}
		sort.Strings(group)
		paths = append(paths, group...)
	}
	return paths, nil
}

// hidden reports whether name is a dotfile, such as a "._x.wav" AppleDouble
// sidecar.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// hiddenPath reports whether any element of path below dir is hidden.
func hiddenPath(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return hidden(filepath.Base(path))
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if hidden(part) {
			return true
		}
	}
	return false
}

// Fingerprint hashes the relative path, size and modification time of every
// file in paths. It only stats files, so it is cheap compared to probing.
// The result does not depend on the order of paths.
func Fingerprint(dir string, paths []string) (string, error) {
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return "", FileSystemError(p, "unable to stat file", err)
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			rel = p
		}
		lines = append(lines, fmt.Sprintf("%s\x00%d\x00%d", filepath.ToSlash(rel), st.Size(), st.ModTime().UnixNano()))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BaseName returns the file name of path without directory or extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Extension returns the lower-case extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
