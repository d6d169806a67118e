package report

import (
	"library-assessment/internal/model"
)

// Series is one data set of a chart, one value per row
type Series struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Values []int64 `json:"values"`
}

// ReportSeries is chart-ready output. Labels, Tooltips, Captions and every Values slice
// are indexed by the same row.
type ReportSeries struct {
	Labels   []string `json:"labels"`
	Tooltips []string `json:"tooltips"`
	Captions []string `json:"captions"`
	Series   []Series `json:"series"`
}

// Aggregate sums, for every key in keys and every row, the counts of the
// selected libraries. Series follow the order of keys, values follow the
// order of rows. Libraries without counts for a row contribute 0.
func Aggregate(selected []string, rows []Row, keys []string, labels model.Catalog) ReportSeries {
	libraries := dedupe(selected)

	out := ReportSeries{
		Labels:   make([]string, len(rows)),
		Tooltips: make([]string, len(rows)),
		Captions: make([]string, len(rows)),
		Series:   make([]Series, 0, len(keys)),
	}
	for i, row := range rows {
		out.Labels[i] = row.Key
		out.Tooltips[i] = row.Tooltip()
		out.Captions[i] = row.Caption
	}

	for _, key := range keys {
		values := make([]int64, len(rows))
		for i, row := range rows {
			values[i] = sumCounts(row.Counts, libraries, key)
		}
		out.Series = append(out.Series, Series{
			Key:    key,
			Name:   labels.Text(key),
			Values: values,
		})
	}
	return out
}

// AggregateCountKind builds the single titles or volumes series
func AggregateCountKind(selected []string, rows []Row, countKind string, labels model.Catalog) ReportSeries {
	return Aggregate(selected, rows, []string{countKind}, labels)
}

// Totals sums each series over every row
func (rs ReportSeries) Totals() map[string]int64 {
	totals := make(map[string]int64, len(rs.Series))
	for _, s := range rs.Series {
		var sum int64
		for _, v := range s.Values {
			sum += v
		}
		totals[s.Key] = sum
	}
	return totals
}

// Empty reports whether there is nothing to draw
func (rs ReportSeries) Empty() bool {
	return len(rs.Labels) == 0 || len(rs.Series) == 0
}

func sumCounts(counts model.CountTable, libraries []string, key string) int64 {
	var count int64
	for _, lib := range libraries {
		libraryCounts, ok := counts[lib]
		if !ok {
			continue
		}
		count += libraryCounts[key]
	}
	return count
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
