// Copyright 2025 the secman authors.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var CascadeStartedAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "secman_cascade_deletion_started_amount",
	Help: "The total number of started cascade deletions",
})

var CascadeSucceededAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "secman_cascade_deletion_succeeded_amount",
	Help: "The total number of committed cascade deletions",
})

var CascadeFailedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "secman_cascade_deletion_failed_amount",
	Help: "The total number of failed cascade deletions by error kind",
}, []string{"kind"})

var CascadeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "secman_cascade_deletion_duration_seconds",
	Help:    "Duration of cascade deletions in seconds",
	Buckets: prometheus.DefBuckets,
})

var CascadeDeletedRowsAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "secman_cascade_deleted_rows_amount",
	Help: "The total number of rows removed by cascade deletions by table",
}, []string{"table"})

var BatchDeletionStartedAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "secman_batch_deletion_started_amount",
	Help: "The total number of started batch deletions",
})

var BatchDeletionRolledBackAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "secman_batch_deletion_rolled_back_amount",
	Help: "The total number of batch deletions rolled back after a mid-batch failure",
})
