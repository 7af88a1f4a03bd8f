// Package loader reads raw documents from disk for ingestion. Each loader
// returns the full document set of one directory, keyed by file name.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ledongthuc/pdf"
)

// TextLoader reads every *.txt file in a directory.
type TextLoader struct {
	dir string
}

func NewTextLoader(dir string) *TextLoader {
	return &TextLoader{dir: dir}
}

func (l *TextLoader) LoadAll() (map[string]string, error) {
	names, err := listFiles(l.dir, ".txt")
	if err != nil {
		return nil, err
	}

	docs := make(map[string]string, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(l.dir, name)) // #nosec G304 -- dir comes from application config
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		docs[name] = string(data)
	}
	return docs, nil
}

// PDFLoader extracts plain text from every *.pdf file in a directory.
type PDFLoader struct {
	dir string
}

func NewPDFLoader(dir string) *PDFLoader {
	return &PDFLoader{dir: dir}
}

func (l *PDFLoader) LoadAll() (map[string]string, error) {
	names, err := listFiles(l.dir, ".pdf")
	if err != nil {
		return nil, err
	}

	docs := make(map[string]string, len(names))
	for _, name := range names {
		text, err := extractPDF(filepath.Join(l.dir, name))
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		docs[name] = text
	}
	return docs, nil
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// listFiles returns the matching file names in dir, sorted. A directory that
// does not exist simply yields no documents.
func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
