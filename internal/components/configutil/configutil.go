package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LocalPath returns the path of the local override file for `name`,
// `config.json5` becomes `config.local.json5`.
func LocalPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readInto[T any](path string, out *T) (bool, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads a json5 configuration file and merges it over `base`.
// The following files are merged, where a higher number takes priority.
// 1. base
// 2. <name>.<ext>
// 3. <name>.local.<ext>
//
// Zero values in a file never override a value from a lower priority source.
// Missing files are skipped, `found` reports if at least one file was read.
func ReadConfig[T any](name string, base T) (out T, found bool, err error) {
	out = base

	var file T
	ok, err := readInto(name, &file)
	if err != nil {
		return out, false, err
	}
	if ok {
		err = mergo.Merge(&out, file, mergo.WithOverride)
		if err != nil {
			return out, false, err
		}
		found = true
	}

	localPath := LocalPath(name)
	var local T
	ok, err = readInto(localPath, &local)
	if err != nil {
		return out, found, err
	}
	if ok {
		err = mergo.Merge(&out, local, mergo.WithOverride)
		if err != nil {
			return out, found, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
		found = true
	}

	return out, found, nil
}
