package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// legacyTimeLayout matches the timestamp format of inference_log.csv files
// produced by earlier versions of the tool.
const legacyTimeLayout = "02/01/2006_15:04:05"

// ExportCSV writes the full ledger in the legacy inference_log.csv layout:
// identifier, class code, timestamp, title.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	entries, err := s.Entries(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	for _, entry := range entries {
		ts := entry.ProcessedAt
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		record := []string{
			entry.Identifier,
			strconv.Itoa(entry.ClassCode),
			ts.Format(legacyTimeLayout),
			entry.Title,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ImportCSV appends rows from a legacy inference_log.csv file. The canonicalize
// function maps stored identifiers to their canonical form; pass nil to keep
// them as-is. Rows shorter than two fields are skipped.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader, canonicalize func(string) string) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	imported := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read csv record: %w", err)
		}
		if len(record) < 2 {
			continue
		}

		identifier := strings.TrimSpace(record[0])
		if identifier == "" {
			continue
		}
		if canonicalize != nil {
			identifier = canonicalize(identifier)
		}

		code, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			continue
		}

		entry := Entry{Identifier: identifier, ClassCode: code}
		if len(record) > 2 {
			if ts, err := time.Parse(legacyTimeLayout, strings.TrimSpace(record[2])); err == nil {
				entry.ProcessedAt = ts
			}
		}
		if len(record) > 3 {
			entry.Title = record[3]
		}

		if err := s.Append(ctx, entry); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
