// Пакет utils содержит общие вспомогательные функции для чтения входных строк
// и безопасной записи отчётов.
package utils

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	maxLineBytes    = 1024 * 1024
	defaultFilename = "input"
)

var (
	utf8BOM      = []byte{0xEF, 0xBB, 0xBF}
	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// LoadLines читает текстовый файл построчно.
// Пропускает BOM, пустые строки и комментарии (#), обрезает пробелы по краям.
// processor, если задан, применяется к каждой оставшейся строке.
func LoadLines(filename string, processor func(string) string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	reader := bufio.NewReader(file)
	if b, err := reader.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		reader.Discard(len(utf8BOM))
	}
	var result []string
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if processor != nil {
			line = processor(line)
		}
		result = append(result, line)
	}
	return result, scanner.Err()
}

// SanitizeFilename оставляет в имени только [a-zA-Z0-9._-], остальное заменяет на _.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return defaultFilename
	}
	return unsafeNameRe.ReplaceAllString(name, "_")
}

// IsPathSafe проверяет, что путь не выходит за пределы baseDir (защита от path traversal).
func IsPathSafe(p, baseDir string) bool {
	cleanPath := filepath.Clean(p)
	rel, err := filepath.Rel(baseDir, cleanPath)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != ".."
}

// WriteFileAtomic пишет данные во временный файл рядом с path и переименовывает его.
func WriteFileAtomic(path string, data []byte) error {
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		_ = os.Remove(tmpFile)
		return err
	}
	return os.Rename(tmpFile, path)
}
