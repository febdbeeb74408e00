package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/domain"
	campaignRepo "github.com/aniladanir/mailing-campaign-service/internal/repository/campaign"
)

// ReportSink delivers a finished report.
type ReportSink interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

type Reporter struct {
	campaignRepo campaignRepo.Repository
	sink         ReportSink
	recipients   []string
	clock        Clock
	localTZ      *time.Location
	logger       *slog.Logger
}

func NewReporter(campaignRepo campaignRepo.Repository, sink ReportSink, recipients []string, clock Clock, localTZ *time.Location, logger *slog.Logger) *Reporter {
	if localTZ == nil {
		localTZ = time.UTC
	}
	return &Reporter{
		campaignRepo: campaignRepo,
		sink:         sink,
		recipients:   recipients,
		clock:        clock,
		localTZ:      localTZ,
		logger:       logger,
	}
}

// Stats returns message counts per status for the given campaigns, or for all
// of them when ids is empty.
func (r *Reporter) Stats(ctx context.Context, ids []int64) (domain.Report, error) {
	return r.campaignRepo.Stats(ctx, ids)
}

// SendReport builds the daily report over all campaigns and hands it to the
// sink. Nothing is sent while there are no campaigns.
func (r *Reporter) SendReport(ctx context.Context) error {
	report, err := r.campaignRepo.Stats(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to collect campaign stats: %w", err)
	}

	subject, body, ok := FormatReport(report, r.clock.Now().In(r.localTZ))
	if !ok {
		r.logger.Debug("no campaigns to report")
		return nil
	}
	if len(r.recipients) == 0 {
		r.logger.Warn("report has no recipients", "subject", subject)
		return nil
	}

	if err := r.sink.Send(ctx, subject, body, r.recipients); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	r.logger.Info("report has been sent", "subject", subject, slog.Int("recipients", len(r.recipients)))
	return nil
}

// FormatReport renders the report mail. ok is false for a report without campaigns.
func FormatReport(report domain.Report, date time.Time) (subject, body string, ok bool) {
	if report.CampaignsCount == 0 {
		return "", "", false
	}

	subject = "Mailing Campaign Report " + date.Format(time.DateOnly)

	var b strings.Builder
	fmt.Fprintf(&b, "Total Campaigns: %d\n\n", report.CampaignsCount)
	for _, c := range report.Campaigns {
		fmt.Fprintf(&b, "Campaign %d:\n\n", c.ID)
		fmt.Fprintf(&b, "Total Messages: %d\n", c.Messages.Count)
		if c.Messages.Count == 0 {
			continue
		}
		for _, sc := range c.Messages.Statuses {
			fmt.Fprintf(&b, "%s: %d\n", sc.Status, sc.Count)
		}
	}
	return subject, b.String(), true
}
