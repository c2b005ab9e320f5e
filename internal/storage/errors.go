package storage

import "errors"

// ErrMissingField is returned when a row lacks a field that is part of its
// primary key (incidents.incident_id, compensation.year). It fails the whole
// fetch; null employee ids are not errors and are left for the caller to drop.
var ErrMissingField = errors.New("storage: missing required field")

// ErrUnknownTable is returned when a fetch names a table outside the four
// source tables.
var ErrUnknownTable = errors.New("storage: unknown table")
