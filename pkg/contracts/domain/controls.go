package domain

import (
	"strings"
	"time"
)

// Period is a resampling granularity in whole calendar months
type Period struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Months int    `json:"months"`
}

var (
	PeriodMonthly    = Period{Code: "1M", Label: "Monthly", Months: 1}
	PeriodQuarter    = Period{Code: "3M", Label: "3 Months", Months: 3}
	PeriodFourMonths = Period{Code: "4M", Label: "4 Months", Months: 4}
	PeriodSemiAnnual = Period{Code: "6M", Label: "Semi-Annual", Months: 6}
	PeriodAnnual     = Period{Code: "12M", Label: "Annual", Months: 12}
)

// Periods lists the selectable comparison periods in display order
func Periods() []Period {
	return []Period{PeriodQuarter, PeriodFourMonths, PeriodSemiAnnual, PeriodAnnual}
}

// ParsePeriod resolves a display label or code. Anything it does not
// recognise resamples monthly.
func ParsePeriod(s string) Period {
	s = strings.TrimSpace(s)
	for _, p := range Periods() {
		if strings.EqualFold(s, p.Label) || strings.EqualFold(s, p.Code) {
			return p
		}
	}
	if strings.EqualFold(s, "A") || strings.EqualFold(s, "Y") {
		return PeriodAnnual
	}
	return PeriodMonthly
}

// JoinMode selects how bucket rows are reconciled with the original
// timestamps after resampling.
type JoinMode string

const (
	// JoinBucket emits exactly one row per bucket.
	JoinBucket JoinMode = "bucket"
	// JoinLegacy left-merges bucket keys against the original Timestamp
	// column, repeating a bucket row for every exact match.
	JoinLegacy JoinMode = "legacy"
)

// ParseJoinMode defaults to JoinBucket
func ParseJoinMode(s string) JoinMode {
	if strings.EqualFold(strings.TrimSpace(s), string(JoinLegacy)) {
		return JoinLegacy
	}
	return JoinBucket
}

// DateRange is the date picker selection. Only a complete pair filters;
// a single date or none passes every row through.
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// IsPair reports whether both ends are set
func (r DateRange) IsPair() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Controls holds the dashboard widget state for one session
type Controls struct {
	EntryName string    `json:"entry_name"`
	Range     DateRange `json:"range"`
	Period    Period    `json:"period"`
	JoinMode  JoinMode  `json:"join_mode"`
}

// Bucket describes one row of a resampled table
type Bucket struct {
	Start time.Time `json:"start"`
	// End is the bucket key: the last calendar day of the period at midnight.
	End  time.Time `json:"end"`
	Rows int       `json:"rows"`
	// Matched counts original rows whose timestamp equals End.
	Matched int `json:"matched"`
}
