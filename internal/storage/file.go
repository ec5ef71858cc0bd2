package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/todmy/cinematch/internal/similarity"
	"github.com/todmy/cinematch/pkg/models"
)

var errUnsupportedFormat = errors.New("storage: unsupported file format")

// FileLoader loads the catalog and similarity table from local files.
//
// Catalog files may be JSON (a list of {"movie_id","title"} records, or the
// column-oriented {"movie_id":{"0":..},"title":{"0":..}} shape produced by
// pandas DataFrame.to_dict) or CSV with a movie_id,title header. Similarity
// files may be gonum binary (.bin) or JSON (.json).
type FileLoader struct {
	CatalogPath    string
	SimilarityPath string
}

// NewFileLoader creates a new FileLoader
func NewFileLoader(catalogPath, similarityPath string) *FileLoader {
	return &FileLoader{CatalogPath: catalogPath, SimilarityPath: similarityPath}
}

// Load reads both files and validates that they line up.
func (l *FileLoader) Load(_ context.Context) (*Dataset, error) {
	items, err := readCatalogFile(l.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", l.CatalogPath, err)
	}

	table, err := readTableFile(l.SimilarityPath)
	if err != nil {
		return nil, fmt.Errorf("load similarity %s: %w", l.SimilarityPath, err)
	}

	return newDataset(items, table)
}

func readCatalogFile(path string) ([]models.Movie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadCatalogJSON(f)
	case ".csv":
		return ReadCatalogCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFormat, path)
	}
}

func readTableFile(path string) (*similarity.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		return similarity.ReadTable(r)
	case ".json":
		return similarity.ReadTableJSON(r)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFormat, path)
	}
}

// WriteTableFile writes table to path in the format named by its extension
func WriteTableFile(path string, table *similarity.Table) error {
	var write func(io.Writer, *similarity.Table) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		write = similarity.WriteTable
	case ".json":
		write = similarity.WriteTableJSON
	default:
		return fmt.Errorf("%w: %s", errUnsupportedFormat, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := write(w, table); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type catalogRecord struct {
	MovieID int64  `json:"movie_id"`
	Title   string `json:"title"`
}

type catalogColumns struct {
	MovieID map[string]int64  `json:"movie_id"`
	Title   map[string]string `json:"title"`
}

// ReadCatalogJSON decodes catalog items in either record or column shape.
func ReadCatalogJSON(r io.Reader) ([]models.Movie, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty catalog")
	}

	if trimmed[0] == '[' {
		var records []catalogRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode catalog records: %w", err)
		}
		items := make([]models.Movie, len(records))
		for i, rec := range records {
			items[i] = models.Movie{Index: i, ID: rec.MovieID, Title: rec.Title}
		}
		return items, nil
	}

	var cols catalogColumns
	if err := json.Unmarshal(trimmed, &cols); err != nil {
		return nil, fmt.Errorf("decode catalog columns: %w", err)
	}
	if len(cols.MovieID) != len(cols.Title) {
		return nil, fmt.Errorf("catalog columns differ in length: %d ids, %d titles", len(cols.MovieID), len(cols.Title))
	}

	keys := make([]int, 0, len(cols.Title))
	for k := range cols.Title {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("catalog row key %q: %w", k, err)
		}
		keys = append(keys, idx)
	}
	sort.Ints(keys)

	items := make([]models.Movie, len(keys))
	for i, idx := range keys {
		key := strconv.Itoa(idx)
		id, ok := cols.MovieID[key]
		if !ok {
			return nil, fmt.Errorf("catalog row %s has a title but no movie_id", key)
		}
		// Row labels can have gaps after dropna; table rows are positional.
		items[i] = models.Movie{Index: i, ID: id, Title: cols.Title[key]}
	}
	return items, nil
}

// ReadCatalogCSV decodes a CSV catalog with movie_id and title columns.
func ReadCatalogCSV(r io.Reader) ([]models.Movie, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idCol, titleCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "movie_id", "id":
			idCol = i
		case "title":
			titleCol = i
		}
	}
	if idCol < 0 || titleCol < 0 {
		return nil, fmt.Errorf("csv header must contain movie_id and title, got %v", header)
	}

	var items []models.Movie
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		id, err := strconv.ParseInt(strings.TrimSpace(rec[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: movie_id: %w", len(items)+1, err)
		}
		items = append(items, models.Movie{Index: len(items), ID: id, Title: rec[titleCol]})
	}
	return items, nil
}
