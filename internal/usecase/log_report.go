package usecase

import (
	"context"
	"fmt"

	applogger "RegimeScan/pkg/logger"
	"RegimeScan/pkg/queue"
)

// LogReportJob drains aggregated error reports off the queue and emits
// them as single summary lines. Errors repeated in a flush window show
// up once with a count instead of flooding the log.
type LogReportJob struct {
	l *applogger.Logger
}

func NewLogReportJob(l *applogger.Logger) *LogReportJob {
	return &LogReportJob{l: l}
}

func (j *LogReportJob) Name() string { return "log-report" }
func (j *LogReportJob) Type() string { return "log_report" }

func (j *LogReportJob) Handle(ctx context.Context, payload interface{}) error {
	entries, err := queue.ParsePayload[[]applogger.AggregatedLogEntry](payload)
	if err != nil {
		return fmt.Errorf("log report payload: %w", err)
	}
	for _, e := range *entries {
		j.l.Warn("aggregated "+e.Level,
			applogger.String("message", e.Message),
			applogger.String("caller", e.Caller),
			applogger.Int("count", e.Count),
			applogger.String("first_seen", e.FirstSeen.Format("2006-01-02T15:04:05Z07:00")),
		)
	}
	return nil
}

var _ queue.Job = (*LogReportJob)(nil)
