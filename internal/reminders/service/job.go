package service

import (
	"context"
	"time"
)

// Job is one reminder kind over records of type T. Mark stamps the
// idempotency flag and is only called after Send succeeds.
type Job[T any] struct {
	Name string
	Flag string
	ID   func(rec T) string
	Due  func(rec T, now time.Time) bool
	Send func(ctx context.Context, rec T) error
	Mark func(rec *T, at time.Time)
}

// RecordError is one failed send inside a batch.
type RecordError struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Result summarizes one job run.
type Result struct {
	Job     string        `json:"job"`
	Scanned int           `json:"scanned"`
	Sent    int           `json:"sent"`
	Skipped int           `json:"skipped"`
	Errors  []RecordError `json:"errors"`
}

// Failed is the number of failed sends.
func (r Result) Failed() int {
	return len(r.Errors)
}

func (r *Result) merge(other Result) {
	r.Scanned += other.Scanned
	r.Sent += other.Sent
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

// observer is told about every send attempt.
type observer func(job string, ok bool)

// Run walks records in order and sends every due one. A failure is
// collected and the batch continues. It reports whether any record was
// marked so the caller knows to save.
func Run[T any](ctx context.Context, job Job[T], records []T, now time.Time, observe observer) (Result, bool) {
	res := Result{Job: job.Name, Errors: []RecordError{}}
	changed := false
	for i := range records {
		res.Scanned++
		if !job.Due(records[i], now) {
			res.Skipped++
			continue
		}
		err := job.Send(ctx, records[i])
		if observe != nil {
			observe(job.Name, err == nil)
		}
		if err != nil {
			res.Errors = append(res.Errors, RecordError{ID: job.ID(records[i]), Type: job.Flag, Error: err.Error()})
			continue
		}
		job.Mark(&records[i], now)
		res.Sent++
		changed = true
	}
	return res, changed
}
