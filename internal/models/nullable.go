package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// NullTime wraps sql.NullTime to provide proper JSON marshaling
type NullTime struct {
	sql.NullTime
}

// MarshalJSON implements json.Marshaler
func (nt NullTime) MarshalJSON() ([]byte, error) {
	if nt.Valid {
		return json.Marshal(nt.Time)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nt *NullTime) UnmarshalJSON(data []byte) error {
	var t *time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t != nil {
		nt.Valid = true
		nt.Time = *t
	} else {
		nt.Valid = false
	}
	return nil
}

// NullFloat wraps sql.NullFloat64 to provide proper JSON marshaling
type NullFloat struct {
	sql.NullFloat64
}

// MarshalJSON implements json.Marshaler
func (nf NullFloat) MarshalJSON() ([]byte, error) {
	if nf.Valid {
		return json.Marshal(nf.Float64)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nf *NullFloat) UnmarshalJSON(data []byte) error {
	var f *float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != nil {
		nf.Valid = true
		nf.Float64 = *f
	} else {
		nf.Valid = false
	}
	return nil
}

// NullUUID wraps uuid.NullUUID to provide proper JSON marshaling
type NullUUID struct {
	uuid.NullUUID
}

// MarshalJSON implements json.Marshaler
func (nu NullUUID) MarshalJSON() ([]byte, error) {
	if nu.Valid {
		return json.Marshal(nu.UUID)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nu *NullUUID) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		nu.Valid = false
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return err
	}
	nu.UUID = id
	nu.Valid = true
	return nil
}

// SomeUUID builds a valid NullUUID from an id
func SomeUUID(id uuid.UUID) NullUUID {
	return NullUUID{uuid.NullUUID{UUID: id, Valid: true}}
}

// SomeString builds a valid NullString from a string
func SomeString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: true}}
}

// SomeTime builds a valid NullTime from a time
func SomeTime(t time.Time) NullTime {
	return NullTime{sql.NullTime{Time: t, Valid: true}}
}
