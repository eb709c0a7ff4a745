package main

import (
	"bytes"
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/config"
	"flowpulse/internal/dataprocessing"
	"flowpulse/internal/files"
	"flowpulse/internal/shared/testutil"
	"flowpulse/pkg/contracts/domain"
)

func writeFixture(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestParseFlags(t *testing.T) {
	cfg := config.Default()

	t.Run("defaults from config", func(t *testing.T) {
		var stderr bytes.Buffer
		opts, err := parseFlags([]string{"-in", "readings.xlsx"}, &stderr, cfg)
		require.NoError(t, err)
		assert.Equal(t, "readings.xlsx", opts.in)
		assert.Equal(t, cfg.Pipeline.DefaultPeriod, opts.period)
		assert.Equal(t, domain.ReportFilename, opts.out)
		assert.False(t, opts.legacyJoin)
	})

	t.Run("missing input", func(t *testing.T) {
		var stderr bytes.Buffer
		_, err := parseFlags(nil, &stderr, cfg)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "-in is required")
	})

	t.Run("help", func(t *testing.T) {
		var stderr bytes.Buffer
		_, err := parseFlags([]string{"-h"}, &stderr, cfg)
		assert.ErrorIs(t, err, flag.ErrHelp)
	})
}

func TestOptionsControls(t *testing.T) {
	defaults := domain.Controls{Period: domain.PeriodQuarter, JoinMode: domain.JoinBucket}

	tests := []struct {
		name    string
		opts    options
		wantErr bool
		check   func(t *testing.T, c domain.Controls)
	}{
		{
			name: "range and period",
			opts: options{name: "Meter A", from: "2024-01-01", to: "2024-06-30", period: "Semi-Annual"},
			check: func(t *testing.T, c domain.Controls) {
				assert.Equal(t, "Meter A", c.EntryName)
				assert.Equal(t, domain.PeriodSemiAnnual, c.Period)
				assert.Equal(t, domain.JoinBucket, c.JoinMode)
				assert.True(t, c.Range.IsPair())
			},
		},
		{
			name: "legacy join",
			opts: options{period: "Annual", legacyJoin: true},
			check: func(t *testing.T, c domain.Controls) {
				assert.Equal(t, domain.JoinLegacy, c.JoinMode)
				assert.False(t, c.Range.IsPair())
			},
		},
		{name: "reversed range", opts: options{from: "2024-06-30", to: "2024-01-01", period: "Annual"}, wantErr: true},
		{name: "bad period", opts: options{period: "Weekly"}, wantErr: true},
		{name: "bad date", opts: options{from: "01/02/2024", period: "Annual"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.opts.controls(defaults)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid flags")
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestRun(t *testing.T) {
	cfg := config.Default()

	t.Run("workbook to pdf and csv", func(t *testing.T) {
		logger, handler := testutil.NewTestLogger(t)
		in := writeFixture(t, "readings.xlsx", testutil.Workbook(t, testutil.HalfYear()))
		dir := t.TempDir()
		opts := options{
			in:     in,
			name:   "Meter A",
			from:   "2024-01-01",
			to:     "2024-06-30",
			period: "Semi-Annual",
			out:    filepath.Join(dir, "out", "report.pdf"),
			csv:    filepath.Join(dir, "resampled.csv"),
		}

		res, err := run(context.Background(), opts, cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, 182, res.Rows)
		assert.Equal(t, 1, res.Buckets)
		assert.Empty(t, res.Skipped)

		pdf, err := os.ReadFile(opts.out)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

		csv, err := os.ReadFile(opts.csv)
		require.NoError(t, err)
		assert.Contains(t, string(csv), "Flow_Rate")

		testutil.AssertLogContains(t, handler, slog.LevelInfo, "report written")

		var summary bytes.Buffer
		printSummary(&summary, opts, res)
		assert.Contains(t, summary.String(), "Buckets:  1")
	})

	t.Run("directory uses latest readings file", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		dir := t.TempDir()
		in := filepath.Join(dir, "readings.csv")
		require.NoError(t, os.WriteFile(in, testutil.CSV(t, testutil.HalfYear()), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
		opts := options{in: dir, period: "Annual", out: filepath.Join(t.TempDir(), "report.pdf")}

		res, err := run(context.Background(), opts, cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, in, res.Input)
		assert.FileExists(t, opts.out)
	})

	t.Run("empty directory", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		_, err := run(context.Background(), options{in: t.TempDir(), period: "Annual"}, cfg, logger)
		assert.ErrorIs(t, err, files.ErrNoReadings)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		_, err := run(context.Background(), options{in: "readings.json", period: "Annual"}, cfg, logger)
		assert.ErrorIs(t, err, dataprocessing.ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		opts := options{in: filepath.Join(t.TempDir(), "absent.csv"), period: "Annual"}
		_, err := run(context.Background(), opts, cfg, logger)
		require.Error(t, err)
		assert.True(t, dataprocessing.IsIngestionError(err))
	})

	t.Run("invalid controls", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)
		opts := options{in: "readings.csv", period: "Fortnightly"}
		_, err := run(context.Background(), opts, cfg, logger)
		assert.Error(t, err)
	})
}
