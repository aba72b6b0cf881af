package corpus

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"wikirag/internal/domain"
)

// interchange file columns, in order. metadata is a JSON object per row.
var columns = []string{"id", "source", "content", "title", "metadata"}

// WriteCSV persists corpus rows as the flat interchange file.
func WriteCSV(path string, rows []domain.CorpusRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		meta, err := json.Marshal(row.Metadata)
		if err != nil {
			return err
		}
		if err := w.Write([]string{row.ID, row.Source, row.Content, row.Title, string(meta)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	log.Printf("corpus: wrote %d rows to %s", len(rows), path)
	return nil
}

// ReadCSV loads up to maxRows corpus rows from the interchange file.
// A missing required column or a malformed row fails the whole read
// with ErrDataShape; a row whose metadata does not parse is logged and
// skipped.
func ReadCSV(path string, maxRows int) ([]domain.CorpusRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, col := range columns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("column %q missing in %s: %w", col, path, domain.ErrDataShape)
		}
	}

	var rows []domain.CorpusRow
	for maxRows <= 0 || len(rows) < maxRows {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed row in %s (%v): %w", path, err, domain.ErrDataShape)
		}
		row := domain.CorpusRow{
			ID:      record[idx["id"]],
			Source:  record[idx["source"]],
			Content: record[idx["content"]],
			Title:   record[idx["title"]],
		}
		if err := json.Unmarshal([]byte(record[idx["metadata"]]), &row.Metadata); err != nil {
			log.Printf("corpus: bad metadata for row %s, skipping: %v", row.ID, err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
