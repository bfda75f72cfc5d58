package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

// QueryObserver receives query timings, typically the metrics service.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type instrumentation struct {
	observer QueryObserver
}

func (i instrumentation) observe(label string, start time.Time) {
	if i.observer != nil {
		i.observer.ObserveDBQuery(label, time.Since(start))
	}
}

func pqError(err error) *pq.Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr
	}
	return nil
}

// validID reports whether id can name a row. Every key column is a UUID, so
// anything else cannot match and is answered without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
