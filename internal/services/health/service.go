package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Service encapsulates health-related checks.
type Service struct {
	db Pinger
}

// NewService constructs a new health service. db may be nil when sessions are kept in memory.
func NewService(db Pinger) *Service {
	return &Service{db: db}
}

// Status pings the session database when one is configured.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true, Checks: map[string]string{}}
	if s.db == nil {
		report.Checks["sessions"] = "memory"
		return report
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		report.OK = false
		report.Checks["sessions"] = "unreachable: " + err.Error()
		return report
	}
	report.Checks["sessions"] = "postgres"
	return report
}
