package results

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/propcheck/internal/ir"
)

// Columns is the fixed column order of a result table.
var Columns = []string{
	"contract_id",
	"property_id",
	"ground_truth",
	"llm_answer",
	"llm_explanation",
	"llm_counterexample",
	"time",
	"tokens",
	"raw_output",
}

var lineBreak = regexp.MustCompile(`\r?\n`)

const (
	quoteRun      = `""""""""""`
	quoteRunShort = `""`
)

// Escape applies the in-field encoding: doubled quotes, literal `\n` for
// line breaks, and collapsed quote runs.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `"`, `""`)
	s = lineBreak.ReplaceAllLiteralString(s, `\n`)
	for strings.Contains(s, quoteRun) {
		s = strings.ReplaceAll(s, quoteRun, quoteRunShort)
	}
	return s
}

// FormatElapsed renders a duration as seconds, shortest exact form.
func FormatElapsed(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// ParseElapsed reads seconds written by FormatElapsed (or any float).
func ParseElapsed(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(math.Round(secs * float64(time.Second))), nil
}

func fields(r ir.Record) []string {
	return []string{
		r.ContractID,
		r.PropertyID,
		r.GroundTruth.String(),
		string(r.Answer),
		r.Explanation,
		r.Counterexample,
		FormatElapsed(r.Elapsed),
		strconv.Itoa(r.TokenLimit),
		r.RawOutput,
	}
}

func writeRow(w *bufio.Writer, row []string, escape bool) {
	for i, f := range row {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		if escape {
			f = Escape(f)
		}
		w.WriteString(f)
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

// WriteHeader writes the quoted header line.
func WriteHeader(w io.Writer) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, Columns, false)
	return bw.Flush()
}

// WriteRecords writes records as table rows, without a header.
func WriteRecords(w io.Writer, records []ir.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		writeRow(bw, fields(r), true)
	}
	return bw.Flush()
}

// Encode writes a complete table: header followed by records.
func Encode(w io.Writer, records []ir.Record) error {
	if err := WriteHeader(w); err != nil {
		return err
	}
	return WriteRecords(w, records)
}

// Decode reads a table written by Encode. Columns are matched by header
// name; contract_id and property_id are required.
func Decode(r io.Reader) ([]ir.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return []ir.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"contract_id", "property_id"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	records := []ir.Record{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		elapsed, err := ParseElapsed(get("time"))
		if err != nil {
			return nil, fmt.Errorf("line %d: time: %w", line, err)
		}
		tokens := 0
		if s := strings.TrimSpace(get("tokens")); s != "" {
			if tokens, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("line %d: tokens: %w", line, err)
			}
		}

		records = append(records, ir.Record{
			ContractID:     get("contract_id"),
			PropertyID:     get("property_id"),
			GroundTruth:    ir.ParseTruth(get("ground_truth")),
			Answer:         ir.Answer(get("llm_answer")),
			Explanation:    unescapeNewlines(get("llm_explanation")),
			Counterexample: unescapeNewlines(get("llm_counterexample")),
			Elapsed:        elapsed,
			TokenLimit:     tokens,
			RawOutput:      unescapeNewlines(get("raw_output")),
		})
	}
	return records, nil
}

func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
