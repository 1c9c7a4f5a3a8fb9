package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshharrison/netplanner/internal/activity"
	"github.com/joshharrison/netplanner/internal/engine"
)

// Canonical column names.
const (
	colID          = "id"
	colName        = "name"
	colDuration    = "duration"
	colOptimistic  = "optimistic"
	colMostLikely  = "most_likely"
	colPessimistic = "pessimistic"
	colPreds       = "predecessors"
)

// InputColumns is the header written for plain activity lists.
var InputColumns = []string{colID, colName, colDuration, colOptimistic, colMostLikely, colPessimistic, colPreds}

// ExportColumns is the header written for computed schedules.
var ExportColumns = append(append([]string(nil), InputColumns...),
	"expected_duration", "variance", "es", "ef", "ls", "lf", "total_float", "free_float", "critical")

var columnAliases = map[string]string{
	"id":           colID,
	"activity":     colID,
	"activity_id":  colID,
	"code":         colID,
	"name":         colName,
	"task":         colName,
	"description":  colName,
	"duration":     colDuration,
	"optimistic":   colOptimistic,
	"o":            colOptimistic,
	"most_likely":  colMostLikely,
	"mostlikely":   colMostLikely,
	"likely":       colMostLikely,
	"m":            colMostLikely,
	"pessimistic":  colPessimistic,
	"p":            colPessimistic,
	"predecessors": colPreds,
	"preds":        colPreds,
	"depends_on":   colPreds,
	"dependencies": colPreds,
}

// headerColumns maps a header row onto canonical columns. It reports false
// when the row does not look like a recognised header.
func headerColumns(header []string) (map[string]int, bool) {
	cols := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
		if canon, ok := columnAliases[key]; ok {
			if _, dup := cols[canon]; !dup {
				cols[canon] = i
			}
		}
	}
	_, hasID := cols[colID]
	_, hasDuration := cols[colDuration]
	_, hasEstimate := cols[colOptimistic]
	return cols, hasID && (hasDuration || hasEstimate)
}

// positionalColumns maps a row by field count: five or more fields are
// id,name,o,m,p[,preds]; three or four are id,name,duration[,preds].
func positionalColumns(n int) (map[string]int, bool) {
	switch {
	case n >= 5:
		return map[string]int{colID: 0, colName: 1, colOptimistic: 2, colMostLikely: 3, colPessimistic: 4, colPreds: 5}, true
	case n >= 3:
		return map[string]int{colID: 0, colName: 1, colDuration: 2, colPreds: 3}, true
	default:
		return nil, false
	}
}

// ParseCSV reads activities from comma separated records. The first line is a
// header and is always skipped; when it names known columns it also decides
// the column mapping, otherwise records are read positionally. Predecessors
// within a field are separated by ';'.
func ParseCSV(r io.Reader) (*ImportReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	report := newReport()
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrParse, err)
	}
	cols, named := headerColumns(header)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			report.skip(perr.Line, "%v", perr.Err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}

		mapping := cols
		if !named {
			var ok bool
			if mapping, ok = positionalColumns(len(rec)); !ok {
				report.skip(line, "expected at least 3 fields, got %d", len(rec))
				continue
			}
		}

		a, err := recordActivity(rec, mapping)
		if err != nil {
			report.skip(line, "%v", err)
			continue
		}
		report.Activities = append(report.Activities, a)
	}
	return report, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func recordActivity(rec []string, cols map[string]int) (activity.Activity, error) {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(col string) (float64, bool, error) {
		s := get(col)
		if s == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s %q is not a number", strings.ReplaceAll(col, "_", " "), s)
		}
		return v, true, nil
	}

	a := activity.Activity{
		ID:           get(colID),
		Name:         get(colName),
		Predecessors: splitPredecessors(get(colPreds)),
	}
	if a.ID == "" {
		return a, errors.New("missing activity id")
	}

	var (
		vals    [3]float64
		present int
	)
	for i, col := range []string{colOptimistic, colMostLikely, colPessimistic} {
		v, ok, err := num(col)
		if err != nil {
			return a, err
		}
		if ok {
			vals[i] = v
			present++
		}
	}
	d, hasDuration, err := num(colDuration)
	if err != nil {
		return a, err
	}

	switch present {
	case 3:
		a.Estimate = &activity.ThreePoint{Optimistic: vals[0], MostLikely: vals[1], Pessimistic: vals[2]}
		a.Duration = d
	case 0:
		if !hasDuration {
			return a, fmt.Errorf("activity %q has no duration", a.ID)
		}
		a.Duration = d
	default:
		return a, fmt.Errorf("activity %q has an incomplete three-point estimate", a.ID)
	}
	return a, nil
}

// WriteActivities writes a plain activity list in import format.
func WriteActivities(w io.Writer, acts []activity.Activity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(InputColumns); err != nil {
		return err
	}
	for _, a := range acts {
		if err := cw.Write(inputFields(a)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes a computed schedule. The output re-imports to the same
// activity list.
func WriteCSV(w io.Writer, res *engine.Result) error {
	if !res.OK() {
		return fmt.Errorf("cannot export a failed computation: %s", strings.Join(res.Errors, "; "))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for _, ca := range res.Activities {
		row := append(inputFields(ca.Activity),
			formatFloat(ca.ExpectedDuration),
			formatFloat(ca.Variance),
			formatFloat(ca.ES),
			formatFloat(ca.EF),
			formatFloat(ca.LS),
			formatFloat(ca.LF),
			formatFloat(ca.TotalFloat),
			formatFloat(ca.FreeFloat),
			strconv.FormatBool(ca.IsCritical),
		)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func inputFields(a activity.Activity) []string {
	row := []string{a.ID, a.Name, "", "", "", "", strings.Join(a.Predecessors, ";")}
	if a.Estimate == nil || a.Duration != 0 {
		row[2] = formatFloat(a.Duration)
	}
	if e := a.Estimate; e != nil {
		row[3] = formatFloat(e.Optimistic)
		row[4] = formatFloat(e.MostLikely)
		row[5] = formatFloat(e.Pessimistic)
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
