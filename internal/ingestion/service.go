package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/dimstore/internal/domain"
	"github.com/rpattn/dimstore/internal/repository"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Service bulk-loads dimension rows from tabular files, driving every
// row through the versioned save path: rows for a known scope become new
// versions when their content changed, unknown scopes become first
// versions.
type Service struct {
	repo repository.RecordRepository
}

// NewService creates an ingestion service over one dimension's
// repository.
func NewService(repo repository.RecordRepository) *Service {
	return &Service{repo: repo}
}

// Request describes the ingestion input.
type Request struct {
	FileName string
	Data     io.Reader
}

// RowError records one rejected row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Summary reports the outcome of an ingestion run.
type Summary struct {
	TotalRows int        `json:"total_rows"`
	Created   int        `json:"created"`
	Versioned int        `json:"versioned"`
	Unchanged int        `json:"unchanged"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors,omitempty"`
}

// Ingest parses the file and saves each row.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read upload: %w", err)
	}

	headers, rows, err := parseTable(req.FileName, payload)
	if err != nil {
		return Summary{}, err
	}

	dim := s.repo.Dimension()
	if err := validateHeaders(dim, headers); err != nil {
		return Summary{}, err
	}

	summary := Summary{TotalRows: len(rows)}
	for i, row := range rows {
		keys, props := splitRow(dim, headers, row)
		outcome, err := s.saveRow(ctx, dim, keys, props)
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Row: i + 1, Message: err.Error()})
			logrus.WithField("dimension", dim.Name).Warnf("Row %d rejected: %v", i+1, err)
			continue
		}
		switch outcome {
		case outcomeCreated:
			summary.Created++
		case outcomeVersioned:
			summary.Versioned++
		case outcomeUnchanged:
			summary.Unchanged++
		}
	}

	return summary, nil
}

type rowOutcome int

const (
	outcomeCreated rowOutcome = iota
	outcomeVersioned
	outcomeUnchanged
)

func (s *Service) saveRow(ctx context.Context, dim domain.Dimension, keys, props map[string]any) (rowOutcome, error) {
	rec, err := s.repo.GetCurrentByKey(ctx, keys)
	switch {
	case err == nil:
		rec.SetProperties(props)
		if !rec.ContentChanged() {
			return outcomeUnchanged, nil
		}
		if err := s.repo.Save(ctx, rec); err != nil {
			return 0, err
		}
		return outcomeVersioned, nil
	case repository.IsNotFound(err):
		rec = domain.NewRecord(dim.Name, keys, props)
		if err := s.repo.Save(ctx, rec); err != nil {
			return 0, err
		}
		return outcomeCreated, nil
	default:
		return 0, err
	}
}

func validateHeaders(dim domain.Dimension, headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, col := range dim.ScopeColumns {
		if !present[col] {
			return fmt.Errorf("file is missing scope column %q", col)
		}
	}
	return nil
}

// splitRow divides a row into scope key values and content properties.
func splitRow(dim domain.Dimension, headers []string, row []string) (map[string]any, map[string]any) {
	scope := make(map[string]bool, len(dim.ScopeColumns))
	for _, col := range dim.ScopeColumns {
		scope[col] = true
	}

	keys := make(map[string]any, len(dim.ScopeColumns))
	props := make(map[string]any, len(headers))
	for i, header := range headers {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		if scope[header] {
			keys[header] = value
			continue
		}
		props[header] = coerceValue(value)
	}
	return keys, props
}

// coerceValue promotes obvious numerics and booleans so re-ingesting the
// same file compares equal against the stored JSONB values.
func coerceValue(value string) any {
	if value == "" {
		return nil
	}
	if b, err := strconv.ParseBool(value); err == nil && (value == "true" || value == "false") {
		return b
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

func parseTable(fileName string, payload []byte) ([]string, [][]string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) ([]string, [][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}

	return normalizeTable(records)
}

func parseExcel(payload []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return normalizeTable(rows)
}

func normalizeTable(records [][]string) ([]string, [][]string, error) {
	var headers []string
	var rows [][]string
	for _, record := range records {
		if isEmptyRow(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, h := range record {
				headers[i] = strings.ToLower(strings.TrimSpace(h))
			}
			continue
		}
		rows = append(rows, record)
	}

	if headers == nil {
		return nil, nil, errors.New("no rows found in file")
	}
	return headers, rows, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
