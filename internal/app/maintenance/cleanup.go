package maintenance

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/agentmesh/agentmesh/internal/services"
	"github.com/agentmesh/agentmesh/pkg/logger"
	"github.com/agentmesh/agentmesh/pkg/metrics"
)

// Job names used for schedule overrides and failure metrics.
const (
	JobMessagePurge      = "message_purge"
	JobNotificationPurge = "notification_purge"
	JobActivityLogPurge  = "activity_log_purge"
	JobPostPurge         = "post_purge"
	JobAnonymization     = "anonymization"
	JobExportExpiry      = "export_expiry"
	JobDeletionProcessor = "deletion_processor"
)

// The jobs are staggered through the nightly low-traffic window so no two
// batch walks compete for the same tables.
var defaultSchedules = map[string]string{
	JobMessagePurge:      "0 2 * * *",
	JobNotificationPurge: "5 2 * * *",
	JobActivityLogPurge:  "10 2 * * *",
	JobPostPurge:         "15 2 * * *",
	JobAnonymization:     "20 2 * * *",
	JobExportExpiry:      "25 2 * * *",
	JobDeletionProcessor: "30 2 * * *",
}

// Cleaner coordinates the scheduled lifecycle jobs: retention purges,
// dormant-agent anonymization, export expiry, and due account deletions.
type Cleaner struct {
	cleanup   *services.CleanupService
	anonymize *services.AnonymizationService
	deletions *services.DeletionRequestService
	cron      *cron.Cron
	log       *zap.Logger
	schedules map[string]string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for a single job.
func WithSchedule(job, spec string) Option {
	return func(cleaner *Cleaner) {
		if spec == "" {
			return
		}
		if _, ok := cleaner.schedules[job]; ok {
			cleaner.schedules[job] = spec
		}
	}
}

// NewCleaner constructs a Cleaner. Any nil service results in its jobs being
// skipped.
func NewCleaner(cleanup *services.CleanupService, anonymize *services.AnonymizationService, deletions *services.DeletionRequestService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		cleanup:   cleanup,
		anonymize: anonymize,
		deletions: deletions,
		log:       logger.WithModule("maintenance"),
		schedules: make(map[string]string, len(defaultSchedules)),
	}
	for job, spec := range defaultSchedules {
		cleaner.schedules[job] = spec
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

type job struct {
	name string
	run  func(context.Context) error
}

func (c *Cleaner) jobs() []job {
	var jobs []job

	if c.cleanup != nil {
		jobs = append(jobs,
			job{JobMessagePurge, func(ctx context.Context) error {
				result, err := c.cleanup.PurgeMessages(ctx)
				if err != nil {
					return err
				}
				metrics.RowsPurged.WithLabelValues("message").Add(float64(result.DeletedCount))
				return nil
			}},
			job{JobNotificationPurge, func(ctx context.Context) error {
				result, err := c.cleanup.PurgeNotifications(ctx)
				if err != nil {
					return err
				}
				metrics.RowsPurged.WithLabelValues("notification").Add(float64(result.DeletedCount))
				return nil
			}},
			job{JobActivityLogPurge, func(ctx context.Context) error {
				result, err := c.cleanup.PurgeActivityLogs(ctx)
				if err != nil {
					return err
				}
				metrics.RowsPurged.WithLabelValues("activity_log").Add(float64(result.DeletedCount))
				return nil
			}},
			job{JobPostPurge, func(ctx context.Context) error {
				result, err := c.cleanup.PurgeSoftDeletedPosts(ctx)
				if err != nil {
					return err
				}
				metrics.RowsPurged.WithLabelValues("post").Add(float64(result.DeletedCount))
				return nil
			}},
			job{JobExportExpiry, func(ctx context.Context) error {
				result, err := c.cleanup.ExpireDataExports(ctx)
				if err != nil {
					return err
				}
				metrics.RowsPurged.WithLabelValues("data_export").Add(float64(result.ExpiredCount))
				return nil
			}},
		)
	}

	if c.anonymize != nil {
		jobs = append(jobs, job{JobAnonymization, func(ctx context.Context) error {
			result, err := c.anonymize.AnonymizeInactive(ctx)
			if err != nil {
				return err
			}
			metrics.AgentsAnonymized.Add(float64(result.AnonymizedCount))
			return nil
		}})
	}

	if c.deletions != nil {
		jobs = append(jobs, job{JobDeletionProcessor, func(ctx context.Context) error {
			result, err := c.deletions.ProcessDue(ctx)
			if err != nil {
				return err
			}
			metrics.DeletionRequestsProcessed.WithLabelValues("completed").Add(float64(result.ProcessedCount))
			return nil
		}})
	}

	return jobs
}

// Start registers every configured job with the cron scheduler and launches
// it.
func (c *Cleaner) Start() error {
	jobs := c.jobs()
	if len(jobs) == 0 {
		return errors.New("maintenance: no jobs configured")
	}

	for _, j := range jobs {
		j := j
		if _, err := c.cron.AddFunc(c.schedules[j.name], func() {
			if err := j.run(context.Background()); err != nil {
				metrics.JobFailures.WithLabelValues(j.name).Inc()
				c.log.Warn("lifecycle job failed", zap.String("job", j.name), zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially. Primarily used in
// tests and for operator-triggered catch-up runs.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for _, j := range c.jobs() {
		if err := j.run(ctx); err != nil {
			metrics.JobFailures.WithLabelValues(j.name).Inc()
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
