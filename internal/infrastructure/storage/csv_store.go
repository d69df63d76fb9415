package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

var (
	listingColumns    = []string{"name", "url", "email"}
	enrichmentColumns = []string{"name", "url", "email", "key_topics", "highlights"}
	draftColumns      = []string{"venue_name", "to_email", "subject", "body"}
)

// Record is one CSV row keyed by header name.
type Record map[string]string

// CSVStore reads and writes the stage tables as UTF-8 CSV with a header row.
type CSVStore struct{}

var _ ports.RecordStore = (*CSVStore)(nil)

// NewCSVStore returns a file-backed record store.
func NewCSVStore() *CSVStore {
	return &CSVStore{}
}

// ReadRecords loads every row of path. Missing columns read as empty strings.
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// WriteRecords replaces path with the header and rows in the given column order.
func WriteRecords(path string, columns []string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header %s: %w", path, err)
	}

	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = rec[col]
		}
		if err := writer.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (s *CSVStore) ReadListings(path string) ([]domain.Listing, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Listing, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Listing{Name: r["name"], URL: r["url"], Email: r["email"]})
	}
	return out, nil
}

func (s *CSVStore) WriteListings(path string, listings []domain.Listing) error {
	records := make([]Record, 0, len(listings))
	for _, l := range listings {
		records = append(records, Record{"name": l.Name, "url": l.URL, "email": l.Email})
	}
	return WriteRecords(path, listingColumns, records)
}

func (s *CSVStore) ReadEnrichments(path string) ([]domain.Enrichment, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Enrichment, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Enrichment{
			Name:       r["name"],
			URL:        r["url"],
			Email:      r["email"],
			KeyTopics:  r["key_topics"],
			Highlights: r["highlights"],
		})
	}
	return out, nil
}

func (s *CSVStore) WriteEnrichments(path string, items []domain.Enrichment) error {
	records := make([]Record, 0, len(items))
	for _, e := range items {
		records = append(records, Record{
			"name":       e.Name,
			"url":        e.URL,
			"email":      e.Email,
			"key_topics": e.KeyTopics,
			"highlights": e.Highlights,
		})
	}
	return WriteRecords(path, enrichmentColumns, records)
}

func (s *CSVStore) ReadDrafts(path string) ([]domain.Draft, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Draft, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Draft{
			VenueName: r["venue_name"],
			ToEmail:   r["to_email"],
			Subject:   r["subject"],
			Body:      r["body"],
		})
	}
	return out, nil
}

func (s *CSVStore) WriteDrafts(path string, drafts []domain.Draft) error {
	records := make([]Record, 0, len(drafts))
	for _, d := range drafts {
		records = append(records, Record{
			"venue_name": d.VenueName,
			"to_email":   d.ToEmail,
			"subject":    d.Subject,
			"body":       d.Body,
		})
	}
	return WriteRecords(path, draftColumns, records)
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
