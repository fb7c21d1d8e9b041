// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ViewerActions counts slide-viewer control invocations by action name.
	ViewerActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewer_actions_total",
		Help: "Number of slide viewer actions handled, by action.",
	}, []string{"action"})

	// EditUploads counts edit-file upload attempts by outcome.
	EditUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edit_uploads_total",
		Help: "Number of FreeSurfer edit file uploads, by result.",
	}, []string{"result"})
)
