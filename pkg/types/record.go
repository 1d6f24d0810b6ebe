package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FieldID is the record field holding the identifier.
const FieldID = "id"

// Record is one schema-less item of an entity collection.
type Record map[string]any

// ID returns the record's identifier, if it carries one.
func (r Record) ID() (ID, bool) {
	v, ok := r[FieldID]
	if !ok {
		return ID{}, false
	}
	return IDOf(v)
}

// Text returns the string held in field, or "" when it is absent or not a
// string.
func (r Record) Text(field string) string {
	s, _ := r[field].(string)
	return s
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// WithID returns a copy of the record carrying id.
func (r Record) WithID(id ID) Record {
	out := r.Clone()
	out[FieldID] = id.Value()
	return out
}

// Merge returns a copy of the record with the fields of partial laid over
// it. Fields absent from partial are kept and the id is always id, whatever
// partial says.
func (r Record) Merge(partial Record, id ID) Record {
	out := r.Clone()
	for k, v := range partial {
		out[k] = v
	}
	out[FieldID] = id.Value()
	return out
}

// Result is the outcome of a mock data operation. A false Success is a
// modeled failure (record not found) described by Message.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// DecodeRecords parses a stored collection. Numbers decode as json.Number so
// millisecond ids keep their precision. A JSON null decodes as empty.
func DecodeRecords(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// EncodeRecords serializes a collection for storage.
func EncodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding collection: %w", err)
	}
	return data, nil
}

// Normalize round-trips a record through JSON so that it has exactly the
// shape a later read from storage produces.
func Normalize(r Record) (Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out Record
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return out, nil
}

// Record operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidEntity = errors.New("entity name must not be empty")
)

// Store action errors.
var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("email or password does not match")
	ErrNotAuthenticated   = errors.New("no user is signed in")
	ErrInvalidToken       = errors.New("invalid admin token")
	ErrLastPet            = errors.New("at least one pet profile must remain")
	ErrPetNotFound        = errors.New("pet not found")
	ErrBoardNotFound      = errors.New("board not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
)
