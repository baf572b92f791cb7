package iocs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/droidtriage/internal/logging"
)

const (
	appName   = "droidtriage"
	rulesFile = "indicators.yaml"

	// DefaultRulesURL is where "update-iocs" fetches the indicator
	// database from when no URL is given
	DefaultRulesURL = "https://raw.githubusercontent.com/muurk/droidtriage-indicators/main/indicators.yaml"

	fetchTimeout = 30 * time.Second
)

// ConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/droidtriage or $HOME/.config/droidtriage
//   - macOS: $HOME/.config/droidtriage (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\droidtriage
func ConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// RulesPath returns the full path of the indicator rule file, whether or
// not it exists yet
func RulesPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", &RuleLoadError{Op: "locate", Err: err}
	}
	return filepath.Join(configDir, rulesFile), nil
}

// Locate returns the path of the indicator rule file, failing with a
// *RuleLoadError when the file has not been installed yet
func Locate() (string, error) {
	path, err := RulesPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", &RuleLoadError{
			Op:   "locate",
			Path: path,
			Err:  fmt.Errorf("indicator database not installed (run 'droidtriage update-iocs'): %w", err),
		}
	}
	return path, nil
}

// Fetch downloads the rule file from url into path. The write is atomic
// (temp file + rename) so a crashed download never corrupts an installed
// database. Returns the sha256 of the downloaded content.
func Fetch(ctx context.Context, url string, path string) (string, error) {
	if url == "" {
		url = DefaultRulesURL
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &RuleLoadError{Op: "fetch", Path: path, Err: err}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", &RuleLoadError{Op: "fetch", Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &RuleLoadError{
			Op:   "fetch",
			Path: path,
			Err:  fmt.Errorf("unexpected status %s from %s", resp.Status, url),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RuleLoadError{Op: "fetch", Path: path, Err: err}
	}

	// Validate before installing: a truncated or malformed download must
	// not replace a working database.
	var rules []Rule
	if err := yamlUnmarshal(data, &rules); err != nil {
		return "", &RuleLoadError{Op: "parse", Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", &RuleLoadError{Op: "fetch", Path: path, Err: err}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return "", &RuleLoadError{Op: "fetch", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", &RuleLoadError{Op: "fetch", Path: path, Err: err}
	}

	hash := contentDigest(data)
	logging.Info("Indicator database updated",
		zap.String("url", url),
		zap.String("path", path),
		zap.String("sha256", hash),
		zap.Int("entries", len(rules)),
	)
	return hash, nil
}
