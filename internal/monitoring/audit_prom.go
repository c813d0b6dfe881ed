// Copyright 2025 the secman authors.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AuditWriteAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "secman_deletion_audit_write_amount",
	Help: "The total number of deletion audit rows written",
})

// A committed deletion without an audit row is a compliance gap. Audit
// failures never propagate to the caller, so this counter is the only
// place they become visible - alert on it.
var AuditWriteFailedAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "secman_deletion_audit_write_failed_amount",
	Help: "The total number of failed deletion audit writes",
})
