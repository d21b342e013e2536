package model

import "time"

// Pointer helpers for building events with optional fields.

func String(v string) *string { return &v }

func Int64(v int64) *int64 { return &v }

func Time(v time.Time) *time.Time { return &v }

// StringOrNil returns a pointer to v, or nil when v is empty. Raw schemas
// use "" for absent fields; canonical events must not.
func StringOrNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
