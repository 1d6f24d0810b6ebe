// Package stores holds the helpers shared by the state stores in its
// subpackages. Each store keeps its state in memory and mirrors it into a
// bespoke JSON document of a types.Storage.
package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// Bespoke document keys.
const (
	KeyCurrentUser         = "currentUser"
	KeyAllRegisteredUsers  = "allRegisteredUsers"
	KeyAllProfileData      = "allProfileData"
	KeyMaintenanceSettings = "maintenanceSettings"
	KeyAdminToken          = "adminToken"
)

// Date formats written into documents.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// LoadJSON decodes the document under key into v. It reports false when
// the key is absent or holds JSON null. Numbers inside freeform values
// decode as json.Number.
func LoadJSON(ctx context.Context, st types.Storage, key string, v any) (bool, error) {
	data, ok, err := st.GetItem(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || string(data) == "null" {
		return false, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, st types.Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := st.SetItem(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Merge lays fields over the JSON form of v and decodes the result into
// out. It is the shallow object spread the stores use for partial updates.
func Merge(v any, fields map[string]any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	for k, f := range fields {
		m[k] = f
	}
	data, err = json.Marshal(m)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return nil
}

// Spread lays fields over a copy of doc, the object spread of freeform
// documents. Keys fields does not name are kept, and the id of doc is
// never replaced. The result has the shape a later load produces.
func Spread(doc, fields types.Record) (types.Record, error) {
	out := doc.Clone()
	for k, v := range fields {
		out[k] = v
	}
	if id, ok := doc[types.FieldID]; ok {
		out[types.FieldID] = id
	} else {
		delete(out, types.FieldID)
	}
	return types.Normalize(out)
}
