package http

import (
	"fmt"

	"flowpulse/internal/services"
	api "flowpulse/pkg/contracts/api/v1"
	"flowpulse/pkg/contracts/domain"
)

func chartURL(sessionID string, name domain.ChartName) string {
	return fmt.Sprintf("/api/sessions/%s/charts/%s", sessionID, name)
}

func newSessionResponse(s services.Session) api.SessionResponse {
	columns := s.Table.Names()
	if columns == nil {
		columns = []string{}
	}
	return api.SessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Filename:  s.Filename,
		Rows:      s.Table.Len(),
		Columns:   columns,
		Controls:  api.NewControlsPayload(s.Controls),
	}
}

func newTablePayload(t domain.Table, limit int) api.TablePayload {
	columns := t.Names()
	if columns == nil {
		columns = []string{}
	}
	return api.TablePayload{
		Columns: columns,
		Rows:    t.Records(limit),
		Total:   t.Len(),
	}
}

func newDashboardResponse(d *services.Dashboard, previewRows int) api.DashboardResponse {
	res := d.Result
	periods := make([]string, 0, len(domain.Periods()))
	for _, p := range domain.Periods() {
		periods = append(periods, p.Label)
	}

	out := api.DashboardResponse{
		SessionID: d.Session.ID,
		Controls:  api.NewControlsPayload(d.Session.Controls),
		Periods:   periods,
		Preview:   newTablePayload(res.Source, previewRows),
		Resampled: newTablePayload(res.Resampled, -1),
		Charts:    make([]api.ChartPayload, 0, len(res.Series)),
		Forecast:  res.Forecast,
		Skipped:   []api.SkippedFeature{},
	}

	if min, max, ok := res.Source.DateBounds(); ok {
		out.Bounds = &api.DateBounds{Min: min.Format(api.DateLayout), Max: max.Format(api.DateLayout)}
	}
	for _, s := range res.Series {
		out.Charts = append(out.Charts, api.ChartPayload{ChartSeries: s, ImageURL: chartURL(d.Session.ID, s.Name)})
	}

	if !d.Session.HasData() {
		out.Message = services.NoDataMessage
		return out
	}
	for _, skip := range res.Skipped() {
		out.Skipped = append(out.Skipped, api.SkippedFeature{Feature: skip.Feature, Reason: skip.Err.Error()})
	}
	return out
}
