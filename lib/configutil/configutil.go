package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

// LoadEnv loads a .env file from the working directory into the process
// environment. A missing file is not an error, secrets may come from the
// real environment in production.
func LoadEnv() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "err", err)
	}
}

func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), strings.TrimPrefix(ext, ".")
}

// ReadConfig reads a json5 configuration file, `name` should come with a
// file extension. A sibling `<name>.local.<ext>` file, if present, is merged
// on top so per-machine overrides never need to touch the checked-in config.
func ReadConfig[T any](name string) (T, error) {
	var out T

	base, err := readFile[T](name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	foundBase := err == nil
	if foundBase {
		out = base
	}

	prefix, ext := splitExt(name)
	localName := fmt.Sprintf("%s.local.%s", prefix, ext)
	local, err := readFile[T](localName)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if err == nil {
		if mergeErr := mergo.Merge(&out, local, mergo.WithOverride); mergeErr != nil {
			return out, mergeErr
		}
		slog.Info("merged config with local overrides", "local", localName)
		return out, nil
	}

	if !foundBase {
		return out, os.ErrNotExist
	}
	return out, nil
}

func readFile[T any](name string) (T, error) {
	var out T
	contents, err := os.ReadFile(name)
	if err != nil {
		return out, err
	}
	if len(contents) == 0 {
		return out, os.ErrNotExist
	}
	err = json5.Unmarshal(contents, &out)
	return out, err
}

// ReadRecursively is ReadConfig but it walks up the filesystem from the
// working directory until the root to find a matching configuration file.
func ReadRecursively[T any](name string) (T, error) {
	var out T

	current, err := os.Getwd()
	if err != nil {
		return out, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if os.IsNotExist(err) {
			parent := filepath.Dir(current)
			if parent == current {
				return out, os.ErrNotExist
			}
			current = parent
			continue
		}
		return config, err
	}
}
