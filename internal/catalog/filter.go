package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

// Filters is the structured predicate set accepted by search and stored by
// smart collections. All supplied predicates are conjunctive.
//
// The zero value matches everything. The JSON encoding is the canonical
// serialized form (round-trippable for smart collection storage).
type Filters struct {
	ContentType          *ContentType `json:"content_type,omitempty"`
	DeviceType           *DeviceType  `json:"device_type,omitempty"`
	CategoryContains     string       `json:"category,omitempty"`
	PackageID            *int64       `json:"package_id,omitempty"`
	ParentDeviceContains string       `json:"parent_device,omitempty"`
}

// IsZero reports whether no predicate is set.
func (f Filters) IsZero() bool {
	return f.ContentType == nil && f.DeviceType == nil &&
		f.CategoryContains == "" && f.PackageID == nil &&
		f.ParentDeviceContains == ""
}

// Validate checks structural validity against the filter grammar.
// Invalid specifications are rejected at definition time, never at
// evaluation time.
func (f Filters) Validate() error {
	if f.ContentType != nil && !f.ContentType.Valid() {
		return bwerrors.InvalidFilter(fmt.Sprintf("invalid content type %q", *f.ContentType), nil)
	}
	if f.DeviceType != nil && !f.DeviceType.Valid() {
		return bwerrors.InvalidFilter(fmt.Sprintf("invalid device type %q", *f.DeviceType), nil)
	}
	if f.PackageID != nil && *f.PackageID <= 0 {
		return bwerrors.InvalidFilter(fmt.Sprintf("invalid package id %d", *f.PackageID), nil)
	}
	return nil
}

// Encode serializes the filter set to its canonical JSON form.
func (f Filters) Encode() (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encoding filter: %w", err)
	}
	return string(data), nil
}

// DecodeFilters parses and validates a serialized filter specification.
func DecodeFilters(spec string) (Filters, error) {
	var f Filters
	dec := json.NewDecoder(strings.NewReader(spec))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Filters{}, bwerrors.InvalidFilter("malformed filter specification", err)
	}
	if err := f.Validate(); err != nil {
		return Filters{}, err
	}
	return f, nil
}

// whereSQL builds the conjunctive WHERE fragment for the filter set.
// Returns a fragment beginning with " AND " per predicate and its args;
// callers embed it after their base condition.
func (f Filters) whereSQL() (string, []any) {
	var sb strings.Builder
	var args []any

	if f.ContentType != nil {
		sb.WriteString(" AND c.content_type = ?")
		args = append(args, string(*f.ContentType))
	}
	if f.DeviceType != nil {
		sb.WriteString(" AND c.device_type = ?")
		args = append(args, string(*f.DeviceType))
	}
	if f.CategoryContains != "" {
		sb.WriteString(" AND c.category LIKE '%' || ? || '%'")
		args = append(args, f.CategoryContains)
	}
	if f.PackageID != nil {
		sb.WriteString(" AND c.package_id = ?")
		args = append(args, *f.PackageID)
	}
	if f.ParentDeviceContains != "" {
		sb.WriteString(" AND c.parent_device LIKE '%' || ? || '%'")
		args = append(args, f.ParentDeviceContains)
	}

	return sb.String(), args
}
