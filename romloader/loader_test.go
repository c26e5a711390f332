package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testExtensions is the extension set used across tests
var testExtensions = []string{".nes"}

// testROM builds a minimal valid iNES image: one PRG bank, one CHR bank.
func testROM(fill byte) []byte {
	data := make([]byte, headerSize+prgBankSize+chrBankSize)
	copy(data, magicINES)
	data[4] = 1
	data[5] = 1
	for i := headerSize; i < len(data); i++ {
		data[i] = fill
	}
	return data
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	return path
}

func createTestZipFile(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("Failed to write to zip: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return writeFile(t, "test.zip", buf.Bytes())
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to write gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close gzip: %v", err)
	}
	return buf.Bytes()
}

func TestLoad_RawROM(t *testing.T) {
	rom := testROM(0xEA)
	path := writeFile(t, "game.nes", rom)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got.Data, rom) {
		t.Error("Data mismatch")
	}
	if got.Name != "game.nes" {
		t.Errorf("Name mismatch: expected game.nes, got %s", got.Name)
	}
	if got.Header.PRGBanks != 1 || got.Header.CHRBanks != 1 {
		t.Errorf("Header banks: got PRG=%d CHR=%d", got.Header.PRGBanks, got.Header.CHRBanks)
	}
}

func TestLoad_RawROMWithoutExtension(t *testing.T) {
	// iNES magic is enough to accept the file
	path := writeFile(t, "game.bin", testROM(0))
	if _, err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}

func TestLoad_InvalidHeader(t *testing.T) {
	path := writeFile(t, "game.nes", []byte("definitely not a cartridge"))
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestLoad_ZipArchive(t *testing.T) {
	rom := testROM(0xAA)
	path := createTestZipFile(t, map[string][]byte{
		"readme.txt":         []byte("hello"),
		"roms/games/zap.nes": rom,
	})

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got.Data, rom) {
		t.Error("Data mismatch")
	}
	if got.Name != "zap.nes" {
		t.Errorf("Name should be just the filename, got %s", got.Name)
	}
}

func TestLoad_NoROMInArchive(t *testing.T) {
	path := createTestZipFile(t, map[string][]byte{"readme.txt": []byte("hello")})

	_, err := Load(path)
	if !errors.Is(err, ErrNoROMFile) {
		t.Errorf("Expected ErrNoROMFile, got %v", err)
	}
}

func TestLoad_GzipFile(t *testing.T) {
	rom := testROM(0x11)
	path := writeFile(t, "game.nes.gz", gzipBytes(t, rom))

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got.Data, rom) {
		t.Error("Data mismatch")
	}
	if got.Name != "game.nes" {
		t.Errorf("Name mismatch: expected game.nes, got %s", got.Name)
	}
}

func TestLoad_TarGz(t *testing.T) {
	rom := testROM(0x22)
	var tb bytes.Buffer
	tw := tar.NewWriter(&tb)
	tw.WriteHeader(&tar.Header{Name: "docs/", Typeflag: tar.TypeDir, Mode: 0755})
	tw.WriteHeader(&tar.Header{Name: "docs/game.nes", Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(rom))})
	tw.Write(rom)
	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar: %v", err)
	}
	path := writeFile(t, "bundle.tar.gz", gzipBytes(t, tb.Bytes()))

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Name != "game.nes" || !bytes.Equal(got.Data, rom) {
		t.Errorf("got %s (%d bytes)", got.Name, len(got.Data))
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	path := writeFile(t, "large.nes.gz", gzipBytes(t, make([]byte, maxROMSize+1)))

	_, err := Load(path)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/path/game.nes"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "game.xyz", []byte{0x01, 0x02, 0x03})

	_, err := Load(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	testCases := []struct {
		header   []byte
		path     string
		expected formatType
	}{
		{magicINES, "file.dat", formatRaw},
		{[]byte{0x50, 0x4B, 0x03, 0x04}, "file.dat", formatZIP},
		{[]byte{0x50, 0x4B, 0x05, 0x06}, "file.dat", formatZIP},
		{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, "file.dat", format7z},
		{[]byte{0x1F, 0x8B}, "file.dat", formatGzip},
		{[]byte{0x52, 0x61, 0x72, 0x21}, "file.dat", formatRAR},
		{nil, "game.nes", formatRaw},
		{nil, "game.NES", formatRaw},
		{nil, "game.zip", formatZIP},
		{nil, "game.7z", format7z},
		{nil, "game.gz", formatGzip},
		{nil, "game.tgz", formatGzip},
		{nil, "game.tar.gz", formatGzip},
		{nil, "game.RAR", formatRAR},
		{nil, "game.sms", formatUnknown},
	}

	for _, tc := range testCases {
		result := detectFormat(tc.header, tc.path, testExtensions)
		if result != tc.expected {
			t.Errorf("detectFormat(%v, %s): expected %d, got %d", tc.header, tc.path, tc.expected, result)
		}
	}
}

func TestIsROMFile(t *testing.T) {
	testCases := []struct {
		name     string
		expected bool
	}{
		{"game.nes", true},
		{"game.NES", true},
		{"roms/game.Nes", true},
		{"game.txt", false},
		{"game.nes.bak", false},
		{"nes", false},
	}

	for _, tc := range testCases {
		if got := isROMFile(tc.name, testExtensions); got != tc.expected {
			t.Errorf("isROMFile(%q): expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
