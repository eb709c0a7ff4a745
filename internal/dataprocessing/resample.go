package dataprocessing

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"flowpulse/pkg/contracts/domain"
)

// BucketEnd returns the key of the bucket holding ts: the last calendar day
// of the period at midnight. Buckets are aligned to January, so quarters end
// in March, June, September and December.
func BucketEnd(ts time.Time, p domain.Period) time.Time {
	months := p.Months
	if months <= 0 {
		months = 1
	}
	y, m, _ := ts.Date()
	endMonth := ((int(m)-1)/months + 1) * months
	return time.Date(y, time.Month(endMonth)+1, 0, 0, 0, 0, 0, ts.Location())
}

// BucketStart returns midnight of the first day of the bucket ending at end
func BucketStart(end time.Time, p domain.Period) time.Time {
	months := p.Months
	if months <= 0 {
		months = 1
	}
	y, m, _ := end.Date()
	return time.Date(y, m-time.Month(months)+1, 1, 0, 0, 0, 0, end.Location())
}

func nextBucketEnd(end time.Time, p domain.Period) time.Time {
	months := p.Months
	if months <= 0 {
		months = 1
	}
	y, m, _ := end.Date()
	return time.Date(y, m+time.Month(months)+1, 0, 0, 0, 0, 0, end.Location())
}

// BucketCount is the number of buckets spanning [min, max]
func BucketCount(min, max time.Time, p domain.Period) int {
	if max.Before(min) {
		return 0
	}
	n := 0
	last := BucketEnd(max, p)
	for end := BucketEnd(min, p); !end.After(last); end = nextBucketEnd(end, p) {
		n++
	}
	return n
}

// Resample averages every numeric column over calendar buckets of period p.
// The result has one row per bucket from the earliest to the latest
// timestamp, empty buckets included with NaN values, keyed by the bucket end
// in the Timestamp column. Text columns are dropped and the entry label is
// reattached as a constant.
//
// JoinLegacy repeats a bucket row once for every original row whose
// timestamp equals the bucket key. The returned buckets describe the output
// rows one to one.
func Resample(t domain.Table, p domain.Period, mode domain.JoinMode) (domain.Table, []domain.Bucket, error) {
	times, ok := t.Times()
	if !ok {
		return domain.Table{}, nil, missingColumn(domain.ColumnTimestamp)
	}
	numeric := t.NumericNames()

	min, max, ok := t.DateBounds()
	if !ok {
		return resampledTable(t, nil, numeric, nil), nil, nil
	}

	var buckets []domain.Bucket
	index := make(map[int64]int)
	last := BucketEnd(max, p)
	for end := BucketEnd(min, p); !end.After(last); end = nextBucketEnd(end, p) {
		index[end.Unix()] = len(buckets)
		buckets = append(buckets, domain.Bucket{Start: BucketStart(end, p), End: end})
	}

	rowBucket := make([]int, len(times))
	for i, ts := range times {
		if ts.IsZero() {
			rowBucket[i] = -1
			continue
		}
		b := index[BucketEnd(ts, p).Unix()]
		rowBucket[i] = b
		buckets[b].Rows++
		if ts.Equal(buckets[b].End) {
			buckets[b].Matched++
		}
	}

	means := make([][]float64, len(numeric))
	for c, name := range numeric {
		values, _ := t.Numbers(name)
		grouped := make([][]float64, len(buckets))
		for i, v := range values {
			if rowBucket[i] < 0 || math.IsNaN(v) {
				continue
			}
			grouped[rowBucket[i]] = append(grouped[rowBucket[i]], v)
		}
		means[c] = make([]float64, len(buckets))
		for b, g := range grouped {
			if len(g) == 0 {
				means[c][b] = math.NaN()
				continue
			}
			means[c][b] = stat.Mean(g, nil)
		}
	}

	rows := make([]int, 0, len(buckets))
	for b, bucket := range buckets {
		repeat := 1
		if mode == domain.JoinLegacy && bucket.Matched > 1 {
			repeat = bucket.Matched
		}
		for k := 0; k < repeat; k++ {
			rows = append(rows, b)
		}
	}

	out := make([]domain.Bucket, len(rows))
	for i, b := range rows {
		out[i] = buckets[b]
	}
	return resampledTable(t, out, numeric, expand(means, rows)), out, nil
}

func expand(means [][]float64, rows []int) [][]float64 {
	out := make([][]float64, len(means))
	for c, col := range means {
		out[c] = make([]float64, len(rows))
		for i, b := range rows {
			out[c][i] = col[b]
		}
	}
	return out
}

func resampledTable(src domain.Table, buckets []domain.Bucket, numeric []string, values [][]float64) domain.Table {
	keys := make([]time.Time, len(buckets))
	for i, b := range buckets {
		keys[i] = b.End
	}
	cols := []domain.Column{domain.TimeColumn(domain.ColumnTimestamp, keys)}
	for c, name := range numeric {
		var v []float64
		if values != nil {
			v = values[c]
		} else {
			v = []float64{}
		}
		cols = append(cols, domain.NumericColumn(name, v))
	}
	out := domain.NewTable(src.EntryName, cols...).WithEntryName(src.EntryName)
	out.Converted = src.Converted
	return out
}
