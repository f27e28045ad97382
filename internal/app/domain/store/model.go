// Package store defines the store directory model.
package store

import (
	"encoding/json"
	"strings"
)

// Record is one registered store. The JSON tags define the on-disk document
// layout; the id is the map key, not a field of the value.
type Record struct {
	ID         string    `json:"-"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Info       string    `json:"info"`
	MenuText   string    `json:"menu_text"`
	ImageFiles ImageList `json:"img_files"`
	Password   string    `json:"password"`
}

// ImageList is an ordered list of image filenames. Documents written by
// earlier versions encode the list as one comma-joined string; both
// encodings decode, and the list form is written back.
type ImageList []string

func (l *ImageList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	out := ImageList{}
	for _, name := range strings.Split(joined, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	*l = out
	return nil
}

// Public is the customer-facing projection of a record. It carries no
// credential material.
type Public struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Info       string   `json:"info"`
	MenuText   string   `json:"menu_text"`
	ImageFiles []string `json:"img_files,omitempty"`
}

// PublicView strips the record down to what customers may see.
func (r Record) PublicView() Public {
	return Public{
		ID:         r.ID,
		Name:       r.Name,
		Phone:      r.Phone,
		Info:       r.Info,
		MenuText:   r.MenuText,
		ImageFiles: append([]string(nil), r.ImageFiles...),
	}
}

// Directory is the whole store document, keyed by store id.
type Directory map[string]Record

// Clone returns a deep copy of the directory.
func (d Directory) Clone() Directory {
	out := make(Directory, len(d))
	for id, rec := range d {
		rec.ImageFiles = append([]string(nil), rec.ImageFiles...)
		out[id] = rec
	}
	return out
}
