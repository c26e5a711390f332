package standalone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JuanchoGithub/TruchiNES/romloader"
	"github.com/sqweek/dialog"
)

// ErrNoROM is returned by Run when no ROM path was given and the file
// picker was cancelled.
var ErrNoROM = errors.New("no ROM selected")

// archiveExtensions are the containers romloader can open.
var archiveExtensions = []string{"zip", "7z", "rar", "gz", "tgz"}

// pickerExtensions returns the file extensions offered by the ROM picker,
// without leading dots.
func pickerExtensions() []string {
	exts := make([]string, 0, len(romloader.Extensions)+len(archiveExtensions))
	for _, e := range romloader.Extensions {
		exts = append(exts, strings.TrimPrefix(e, "."))
	}
	return append(exts, archiveExtensions...)
}

// pickROM asks the user for a ROM file with the native file dialog.
func pickROM() (string, error) {
	path, err := dialog.File().
		Title("Open ROM").
		Filter("NES ROMs and archives", pickerExtensions()...).
		Load()
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			return "", ErrNoROM
		}
		return "", fmt.Errorf("file dialog: %w", err)
	}
	return path, nil
}
