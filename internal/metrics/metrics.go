// Package metrics counts what a run fetched, kept, loaded and migrated.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookworm"

// Recorder holds the run counters in a private registry. A nil *Recorder
// ignores every call, so observers can be wired unconditionally.
type Recorder struct {
	registry *prometheus.Registry

	volumesFetched  prometheus.Counter
	volumesAccepted prometheus.Counter
	volumesRejected *prometheus.CounterVec
	booksLoaded     prometheus.Counter
	httpRequests    *prometheus.CounterVec
	documents       *prometheus.CounterVec
}

// NewRecorder creates a Recorder with all counters registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		volumesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volumes_fetched_total",
			Help:      "Volumes returned by catalog searches.",
		}),
		volumesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volumes_accepted_total",
			Help:      "Volumes kept after validation and deduplication.",
		}),
		volumesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volumes_rejected_total",
			Help:      "Volumes dropped, by reason.",
		}, []string{"reason"}),
		booksLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_loaded_total",
			Help:      "Books written to the relational store.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Outbound API requests by source and status code; status 0 means no response.",
		}, []string{"source", "status"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_migrated_total",
			Help:      "Documents written to the document store, by collection.",
		}, []string{"collection"}),
	}

	r.registry.MustRegister(
		r.volumesFetched,
		r.volumesAccepted,
		r.volumesRejected,
		r.booksLoaded,
		r.httpRequests,
		r.documents,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRequest counts one outbound request.
func (r *Recorder) ObserveRequest(source string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(source, strconv.Itoa(status)).Inc()
}

// VolumesFetched counts volumes returned by a search page.
func (r *Recorder) VolumesFetched(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.volumesFetched.Add(float64(n))
}

// VolumeAccepted counts one kept volume.
func (r *Recorder) VolumeAccepted() {
	if r == nil {
		return
	}
	r.volumesAccepted.Inc()
}

// VolumeRejected counts one dropped volume.
func (r *Recorder) VolumeRejected(reason string) {
	if r == nil {
		return
	}
	r.volumesRejected.WithLabelValues(reason).Inc()
}

// BooksLoaded counts books committed to the relational store.
func (r *Recorder) BooksLoaded(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.booksLoaded.Add(float64(n))
}

// DocumentsMigrated counts documents inserted into collection.
func (r *Recorder) DocumentsMigrated(collection string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.documents.WithLabelValues(collection).Add(float64(n))
}

// WriteFile writes the registry in the text exposition format, atomically,
// for the node_exporter textfile collector. An empty path is a no-op.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
