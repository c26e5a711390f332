package romloader

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// errFound stops fs.WalkDir once a ROM has been read.
var errFound = errors.New("found")

// extractFromFS walks an archive exposed as an fs.FS and reads the first
// regular file with a ROM extension.
func extractFromFS(fsys fs.FS, extensions []string) ([]byte, string, error) {
	var (
		data []byte
		name string
	)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isROMFile(p, extensions) {
			return nil
		}
		f, err := fsys.Open(p)
		if err != nil {
			return fmt.Errorf("failed to open %s in archive: %w", p, err)
		}
		defer f.Close()

		data, err = limitedRead(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		name = path.Base(p)
		return errFound
	})
	switch {
	case errors.Is(err, errFound):
		return data, name, nil
	case err != nil:
		return nil, "", err
	}
	return nil, "", ErrNoROMFile
}

// extractFromStream reads sequential archive entries until one with a ROM
// extension turns up. next returns io.EOF when the archive is exhausted.
func extractFromStream(r io.Reader, next func() (name string, regular bool, err error), extensions []string) ([]byte, string, error) {
	for {
		name, regular, err := next()
		if err == io.EOF {
			return nil, "", ErrNoROMFile
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read archive entry: %w", err)
		}
		if !regular || !isROMFile(name, extensions) {
			continue
		}
		data, err := limitedRead(r)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", name, err)
		}
		return data, filepath.Base(name), nil
	}
}

func extractFromZIP(p string, extensions []string) ([]byte, string, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()
	return extractFromFS(r, extensions)
}

func extractFrom7z(p string, extensions []string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(p)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open 7z: %w", err)
	}
	defer r.Close()
	return extractFromFS(r, extensions)
}

func extractFromRAR(p string, extensions []string) ([]byte, string, error) {
	r, err := rardecode.OpenReader(p)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open rar: %w", err)
	}
	defer r.Close()
	return extractFromStream(r, func() (string, bool, error) {
		h, err := r.Next()
		if err != nil {
			return "", false, err
		}
		return h.Name, !h.IsDir, nil
	}, extensions)
}

// extractFromGzip handles both a bare .gz (the payload is the ROM) and a
// tarball.
func extractFromGzip(p string, extensions []string) ([]byte, string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open gzip: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gr.Close()

	lower := strings.ToLower(p)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		tr := tar.NewReader(gr)
		return extractFromStream(tr, func() (string, bool, error) {
			h, err := tr.Next()
			if err != nil {
				return "", false, err
			}
			return h.Name, h.Typeflag == tar.TypeReg, nil
		}, extensions)
	}

	data, err := limitedRead(gr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decompress gzip: %w", err)
	}
	name := filepath.Base(p)
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		name = name[:len(name)-3]
	}
	return data, name, nil
}
