package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Ref is a related record as rendered by the backend. Depending on the
// serializer a relation arrives as a bare primary key, as its string form,
// or as a small object; Ref decodes all three.
type Ref struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref{Name: s}
		return nil
	case '{':
		var obj struct {
			ID        int    `json:"id"`
			Name      string `json:"name"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		name := obj.Name
		if name == "" {
			name = strings.TrimSpace(obj.FirstName + " " + obj.LastName)
		}
		*r = Ref{ID: obj.ID, Name: name}
		return nil
	default:
		var id int
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
}

// String returns the name, or the id when no name is known.
func (r Ref) String() string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID == 0 {
		return ""
	}
	return strconv.Itoa(r.ID)
}

// RefIDs collects the non-zero ids of refs.
func RefIDs(refs []Ref) []int {
	ids := make([]int, 0, len(refs))
	for _, r := range refs {
		if r.ID != 0 {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
