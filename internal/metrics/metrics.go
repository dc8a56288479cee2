package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_uploads_submitted_total",
		Help: "Total number of upload requests accepted by the remote api",
	})

	UploadsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_uploads_rejected_total",
		Help: "Total number of upload requests that failed validation or submission",
	})

	PollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_polls_total",
		Help: "Total number of status fetches issued",
	})

	PollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_poll_errors_total",
		Help: "Total number of status fetches that failed at the transport level",
	})

	UnknownStatuses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_unknown_statuses_total",
		Help: "Total number of snapshots carrying an unrecognized status value",
	})

	TasksSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_tasks_succeeded_total",
		Help: "Total number of polling sessions that ended in success",
	})

	TasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_tasks_failed_total",
		Help: "Total number of polling sessions that ended in task failure",
	})

	TasksCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_tasks_cancelled_total",
		Help: "Total number of cancel requests sent to the remote api",
	})

	ResultsDownloaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_results_downloaded_total",
		Help: "Total number of dubbed results written to the output directory",
	})

	ResultBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auralflow_result_bytes_total",
		Help: "Total number of result bytes downloaded",
	})

	PollSessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auralflow_poll_session_duration_seconds",
		Help:    "Duration of polling sessions in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})
)
