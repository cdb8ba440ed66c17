// Package document provides lenient accessors over the loosely-typed,
// string-keyed maps that document stores hand back. Every accessor falls
// back to the caller's default when a key is missing or holds a value of
// the wrong type, so one malformed field never blocks decoding the rest.
package document

import (
	"encoding/json"
	"math"
	"time"
)

// Document is a persisted record as a string-keyed map of primitive values.
type Document map[string]interface{}

// Snapshot is a document together with its out-of-band identifier.
type Snapshot struct {
	ID   string
	Data Document
}

// String returns the string at key, or def.
func (d Document) String(key, def string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return def
}

// Float returns any numeric value at key as a float64, or def.
func (d Document) Float(key string, def float64) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

// Int returns the integer at key, or def. Floating values are accepted
// only when they carry no fractional part.
func (d Document) Int(key string, def int) int {
	switch v := d[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		if i, ok := wholeInt(v); ok {
			return i
		}
	case float32:
		if i, ok := wholeInt(float64(v)); ok {
			return i
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return def
}

// wholeInt converts f when it has no fractional part and fits in an int.
// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
func wholeInt(f float64) (int, bool) {
	if f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// Bool returns the boolean at key, or def.
func (d Document) Bool(key string, def bool) bool {
	if v, ok := d[key].(bool); ok {
		return v
	}
	return def
}

// Time decodes a seconds-since-epoch number at key. Native time values,
// as returned by Firestore for timestamp fields, are accepted too.
func (d Document) Time(key string, def time.Time) time.Time {
	if t, ok := d[key].(time.Time); ok {
		return t.UTC()
	}
	if _, present := d[key]; !present {
		return def
	}
	seconds := d.Float(key, math.NaN())
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return def
	}
	return time.UnixMicro(int64(math.Round(seconds * 1e6))).UTC()
}

// FromTime encodes t as seconds since the epoch with microsecond resolution.
func FromTime(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// Now returns the current UTC time truncated to what FromTime can carry.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
