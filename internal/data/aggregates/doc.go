// Package aggregates contains the session stores behind session.Repository.
//
// The gorm store composes table-level repos from internal/data/repos and owns the
// transaction boundary and version guard for every session write. The Mongo and
// in-memory stores implement the same contract for their backends.
package aggregates
