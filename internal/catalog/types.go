// Package catalog provides the SQLite storage layer for the bwfind content
// catalog.
//
// All catalog data lives in a single SQLite database file, including:
// - Packages (vendor content bundles) and their content rows
// - The derived four-tier search text kept in sync by FTS5 triggers
// - Static and smart collections
// - The append-only usage event log
package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContentType identifies the kind of a catalogable asset.
// The set is closed; writes with unknown values are rejected by both
// ParseContentType and the table's CHECK constraint.
type ContentType string

const (
	ContentTypePreset      ContentType = "preset"
	ContentTypeClip        ContentType = "clip"
	ContentTypeSample      ContentType = "sample"
	ContentTypeMultisample ContentType = "multisample"
	ContentTypeImpulse     ContentType = "impulse"
	ContentTypeCurve       ContentType = "curve"
	ContentTypeWavetable   ContentType = "wavetable"
	ContentTypeDevice      ContentType = "device"
	ContentTypePlugin      ContentType = "plugin"
	ContentTypeTemplate    ContentType = "template"
	ContentTypeProject     ContentType = "project"
)

// ContentTypes lists every valid content type.
var ContentTypes = []ContentType{
	ContentTypePreset, ContentTypeClip, ContentTypeSample,
	ContentTypeMultisample, ContentTypeImpulse, ContentTypeCurve,
	ContentTypeWavetable, ContentTypeDevice, ContentTypePlugin,
	ContentTypeTemplate, ContentTypeProject,
}

// ParseContentType validates a string against the closed content type set.
func ParseContentType(s string) (ContentType, error) {
	for _, t := range ContentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid content type %q", s)
}

// Valid reports whether t is a member of the closed content type set.
func (t ContentType) Valid() bool {
	_, err := ParseContentType(string(t))
	return err == nil
}

// DeviceType identifies the kind of a Bitwig device.
type DeviceType string

const (
	DeviceTypeInstrument DeviceType = "instrument"
	DeviceTypeAudioFX    DeviceType = "audio_fx"
	DeviceTypeNoteFX     DeviceType = "note_fx"
	DeviceTypeModulator  DeviceType = "modulator"
	DeviceTypeContainer  DeviceType = "container"
	DeviceTypeUtility    DeviceType = "utility"
)

// DeviceTypes lists every valid device type.
var DeviceTypes = []DeviceType{
	DeviceTypeInstrument, DeviceTypeAudioFX, DeviceTypeNoteFX,
	DeviceTypeModulator, DeviceTypeContainer, DeviceTypeUtility,
}

// ParseDeviceType validates a string against the closed device type set.
func ParseDeviceType(s string) (DeviceType, error) {
	for _, t := range DeviceTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid device type %q", s)
}

// Valid reports whether t is a member of the closed device type set.
func (t DeviceType) Valid() bool {
	_, err := ParseDeviceType(string(t))
	return err == nil
}

// Package is a vendor's installed content bundle.
// The canonical install path is the natural key; name is also unique.
type Package struct {
	ID          int64
	Name        string
	Vendor      string
	Version     string
	Path        string
	InstalledAt time.Time
	IsFactory   bool
}

// Content is the unit of searchable material: a preset, sample, clip, etc.
// The absolute file path is the sole identity key; two rows can never share
// one. Hash collisions across distinct paths stay independent records.
type Content struct {
	ID int64

	// Identity
	Name        string
	FilePath    string
	ContentType ContentType

	// Relationships. PackageID is nil for loose user-library content and is
	// cleared (not cascaded) when the owning package is deleted. ParentDevice
	// is a free-text link, not a foreign key.
	PackageID    *int64
	ParentDevice string

	// Metadata
	Description string
	Category    string
	Subcategory string
	Tags        []string
	Creator     string

	// Technical details
	DeviceType *DeviceType
	DeviceUUID *uuid.UUID
	PluginID   string

	// Audio properties (applicable to samples and clips)
	SampleRate   int
	Channels     int
	DurationMS   int64
	BPM          float64
	KeySignature string

	// File info
	FileSize   int64
	FileHash   string
	ModifiedAt time.Time
	IndexedAt  time.Time
}

// CollectionKind distinguishes explicit membership from stored filters.
type CollectionKind string

const (
	// CollectionStatic holds an explicit membership list.
	CollectionStatic CollectionKind = "static"
	// CollectionSmart holds a stored filter evaluated live on every read.
	CollectionSmart CollectionKind = "smart"
)

// Collection is a named, user-defined grouping of content.
type Collection struct {
	ID        int64
	Name      string
	Kind      CollectionKind
	Filter    *Filters // set for smart collections only
	CreatedAt time.Time
}

// UsageEvent records an action taken on a piece of content. Rows are
// append-only and never updated.
type UsageEvent struct {
	ID        int64
	ContentID int64
	Action    string
	Context   map[string]string
	CreatedAt time.Time
}

// SearchResult is a ranked search or collection row.
type SearchResult struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	ContentType  ContentType `json:"content_type"`
	Category     string      `json:"category,omitempty"`
	ParentDevice string      `json:"parent_device,omitempty"`
	FilePath     string      `json:"file_path"`
	PackageName  string      `json:"package_name,omitempty"`
	Relevance    float64     `json:"relevance"`
}

// Suggestion is a single autocomplete row.
type Suggestion struct {
	Suggestion  string      `json:"suggestion"`
	ContentType ContentType `json:"content_type"`
	MatchCount  int         `json:"match_count"`
}

// DuplicateGroup reports distinct paths sharing one content hash.
// Advisory only; duplicates are never merged or rejected.
type DuplicateGroup struct {
	Hash  string
	Paths []string
}
