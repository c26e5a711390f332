// Package storage owns everything the host keeps on disk: config.json,
// save state slots, and screenshots, under a per-OS application data
// directory.
package storage

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"
)

var appName = "truchines"

// Init sets the application data directory name. Call it before any
// other storage operation.
func Init(dataDirName string) {
	appName = dataDirName
}

const (
	configFile    = "config.json"
	savesDir      = "saves"
	screenshotDir = "screenshots"
)

// GetBaseDir returns the base directory for application data:
// - macOS: ~/Library/Application Support/<appName>
// - Linux: $XDG_DATA_HOME/<appName> or ~/.local/share/<appName>
// - Windows: %APPDATA%/<appName>
func GetBaseDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, appName), nil
	}

	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// EnsureDirectories creates the data directory tree.
func EnsureDirectories() error {
	baseDir, err := GetBaseDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{
		baseDir,
		filepath.Join(baseDir, savesDir),
		filepath.Join(baseDir, screenshotDir),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func inBaseDir(name string) (string, error) {
	baseDir, err := GetBaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, name), nil
}

// GetConfigPath returns the full path to config.json
func GetConfigPath() (string, error) { return inBaseDir(configFile) }

// GetSavesDir returns the directory holding per-game save slots.
func GetSavesDir() (string, error) { return inBaseDir(savesDir) }

// GetScreenshotDir returns the full path to the screenshots directory
func GetScreenshotDir() (string, error) { return inBaseDir(screenshotDir) }

// GameID identifies a ROM by the CRC32 of its contents, as 8 hex digits.
func GameID(rom []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(rom))
}

// GetGameSaveDir returns the save directory for one game.
func GetGameSaveDir(gameID string) (string, error) {
	dir, err := GetSavesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, gameID), nil
}

// AtomicWriteFile writes data to path via a temporary file and a rename,
// so readers see either the old contents or the new, never a torn file.
func AtomicWriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// AtomicWriteJSON marshals data as indented JSON and writes it atomically.
func AtomicWriteJSON(path string, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return AtomicWriteFile(path, jsonData)
}

// ReadJSON reads and unmarshals a JSON file
func ReadJSON(path string, data any) error {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jsonData, data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
