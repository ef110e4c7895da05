// Package deals loads the batch input: a CRM deal export CSV pairing
// deal record IDs with their field-service quote IDs.
package deals

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alexatafm/solar-hub-sync/pkg/errors"
	"github.com/alexatafm/solar-hub-sync/pkg/logging"
)

// Record is one deal/quote pair to sync.
type Record struct {
	DealID   string
	QuoteID  int
	DealName string
}

// DuplicateMode controls how rows sharing a quote ID are handled.
type DuplicateMode string

const (
	// DuplicateFirst keeps only the first row per quote ID.
	DuplicateFirst DuplicateMode = "first"
	// DuplicateAll keeps every row; later rows re-sync the same quote.
	DuplicateAll DuplicateMode = "all"
	// DuplicateSkip drops every row whose quote ID appears more than once,
	// surfacing duplicates for manual review instead of syncing any of them.
	DuplicateSkip DuplicateMode = "skip"
)

// ParseDuplicateMode validates a mode flag value.
func ParseDuplicateMode(s string) (DuplicateMode, error) {
	switch DuplicateMode(s) {
	case DuplicateFirst, DuplicateAll, DuplicateSkip:
		return DuplicateMode(s), nil
	default:
		return "", &errors.ValidationError{
			Field:   "duplicates",
			Value:   s,
			Message: "must be one of first, all, skip",
		}
	}
}

// Expected CSV headers, matching the CRM deal export format.
const (
	headerRecordID = "Record ID"
	headerQuoteID  = "Simpro Quote Id"
	headerDealName = "Deal Name"
)

// Load reads deal/quote pairs from a CRM export CSV. Rows without a
// quote ID are skipped; rows with a non-numeric quote ID are skipped and
// logged. The duplicate mode is applied after loading, preserving row
// order.
func Load(path string, mode DuplicateMode) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	records, err := parse(f)
	if err != nil {
		return nil, err
	}
	return applyDuplicateMode(records, mode), nil
}

func parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.WrapParse("csv", "header row", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{headerRecordID, headerQuoteID} {
		if _, ok := col[required]; !ok {
			return nil, &errors.ValidationError{
				Field:   "csv",
				Value:   required,
				Message: "missing required column",
			}
		}
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse("csv", "data row", err)
		}

		quoteRaw := strings.TrimSpace(field(row, col, headerQuoteID))
		if quoteRaw == "" {
			continue
		}

		quoteID, err := strconv.Atoi(quoteRaw)
		if err != nil {
			logging.Warn().Str("quote_id", quoteRaw).Msg("Skipping row with non-numeric quote ID")
			continue
		}

		records = append(records, Record{
			DealID:   strings.TrimSpace(field(row, col, headerRecordID)),
			QuoteID:  quoteID,
			DealName: strings.TrimSpace(field(row, col, headerDealName)),
		})
	}

	return records, nil
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func applyDuplicateMode(records []Record, mode DuplicateMode) []Record {
	if mode == DuplicateAll || mode == "" {
		return records
	}

	counts := make(map[int]int, len(records))
	for _, r := range records {
		counts[r.QuoteID]++
	}

	var out []Record
	seen := make(map[int]bool, len(records))
	for _, r := range records {
		switch mode {
		case DuplicateFirst:
			if seen[r.QuoteID] {
				continue
			}
			seen[r.QuoteID] = true
			out = append(out, r)
		case DuplicateSkip:
			if counts[r.QuoteID] > 1 {
				if !seen[r.QuoteID] {
					seen[r.QuoteID] = true
					logging.Warn().Int("quote_id", r.QuoteID).Int("rows", counts[r.QuoteID]).Msg("Skipping duplicated quote ID")
				}
				continue
			}
			out = append(out, r)
		}
	}
	return out
}

// Slice applies start/end index bounds and an optional limit to the
// loaded records. end of 0 means no upper bound; limit of 0 means no
// limit.
func Slice(records []Record, start, end, limit int) []Record {
	if start < 0 {
		start = 0
	}
	if start >= len(records) {
		return nil
	}
	records = records[start:]

	if end > start {
		n := end - start
		if n < len(records) {
			records = records[:n]
		}
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
