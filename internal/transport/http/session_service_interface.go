package http

import (
	"context"
	"io"

	"flowpulse/internal/services"
	"flowpulse/pkg/contracts/domain"
)

// SessionServiceInterface defines the dashboard operations the handlers need
type SessionServiceInterface interface {
	Create(ctx context.Context, entryName string) (services.Session, error)
	Get(ctx context.Context, id string) (services.Session, error)
	Delete(ctx context.Context, id string) error
	Upload(ctx context.Context, id, filename string, r io.Reader, entryName *string) (services.Session, error)
	UpdateControls(ctx context.Context, id string, controls domain.Controls) (services.Session, error)
	Dashboard(ctx context.Context, id string) (*services.Dashboard, error)
	Chart(ctx context.Context, id string, name domain.ChartName) ([]byte, error)
	Report(ctx context.Context, id string) (*domain.Report, error)
	ExportCSV(ctx context.Context, id string) ([]byte, error)
}
