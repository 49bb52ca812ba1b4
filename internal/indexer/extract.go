// Package indexer crawls Bitwig library roots and reconciles the catalog
// with what it finds on disk.
//
// Extraction fans out across workers; all catalog writes flow through a
// single writer goroutine. A failure on one file is recorded and never
// aborts the run.
package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-audio/wav"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

// extensionMap maps file extensions to content types. Files with other
// extensions are not indexable.
var extensionMap = map[string]catalog.ContentType{
	".bwpreset":     catalog.ContentTypePreset,
	".bwclip":       catalog.ContentTypeClip,
	".wav":          catalog.ContentTypeSample,
	".aif":          catalog.ContentTypeSample,
	".aiff":         catalog.ContentTypeSample,
	".flac":         catalog.ContentTypeSample,
	".ogg":          catalog.ContentTypeSample,
	".mp3":          catalog.ContentTypeSample,
	".multisample":  catalog.ContentTypeMultisample,
	".bwimpulse":    catalog.ContentTypeImpulse,
	".bwcurve":      catalog.ContentTypeCurve,
	".bwwavetable":  catalog.ContentTypeWavetable,
	".bwtemplate":   catalog.ContentTypeTemplate,
	".bwproject":    catalog.ContentTypeProject,
}

// ContentTypeForPath reports the content type a path would be indexed as.
func ContentTypeForPath(path string) (catalog.ContentType, bool) {
	t, ok := extensionMap[strings.ToLower(filepath.Ext(path))]
	return t, ok
}

// deviceTypePatterns infer a device type from a device name. First match
// wins, so order matters.
var deviceTypePatterns = []struct {
	re *regexp.Regexp
	t  catalog.DeviceType
}{
	{regexp.MustCompile(`(?i)(polymer|phase-4|fm-4|polysynth|sampler|organ|piano|synth|instrument)`), catalog.DeviceTypeInstrument},
	{regexp.MustCompile(`(?i)(eq|filter|comp|reverb|delay|chorus|flanger|phaser|distort|amp|fx)`), catalog.DeviceTypeAudioFX},
	{regexp.MustCompile(`(?i)(arpeggiator|note|chord|scale|transpose|velocity|midi)`), catalog.DeviceTypeNoteFX},
	{regexp.MustCompile(`(?i)(lfo|adsr|envelope|steps|curve|macro|modulator)`), catalog.DeviceTypeModulator},
	{regexp.MustCompile(`(?i)(layer|chain|selector|container|rack|split)`), catalog.DeviceTypeContainer},
	{regexp.MustCompile(`(?i)(meter|tool|utility|audio receiver|note receiver)`), catalog.DeviceTypeUtility},
}

// InferDeviceType guesses a device type from a device name.
// Returns nil when no pattern matches.
func InferDeviceType(deviceName string) *catalog.DeviceType {
	for _, p := range deviceTypePatterns {
		if p.re.MatchString(deviceName) {
			t := p.t
			return &t
		}
	}
	return nil
}

var (
	bracketCategoryRe = regexp.MustCompile(`^\[([^\]]+)\]\s*(.+)`)

	// Keyword families commonly embedded in preset names.
	tagPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(analog|digital|fm|wavetable|sample|granular)\b`),
		regexp.MustCompile(`(?i)\b(warm|cold|dark|bright|soft|hard|aggressive)\b`),
		regexp.MustCompile(`(?i)\b(ambient|cinematic|vintage|modern|classic)\b`),
		regexp.MustCompile(`(?i)\b(bass|lead|pad|pluck|keys|strings|brass|perc)\b`),
	}
)

// ParsePresetName extracts a category prefix and keyword tags from a preset
// name. Two prefix conventions are recognized: "Category - Name" and
// "[Category] Name".
func ParsePresetName(name string) (category string, tags []string) {
	if before, after, ok := strings.Cut(name, " - "); ok {
		category = strings.TrimSpace(before)
		name = strings.TrimSpace(after)
	}
	if m := bracketCategoryRe.FindStringSubmatch(name); m != nil {
		category = m[1]
		name = m[2]
	}

	for _, re := range tagPatterns {
		for _, m := range re.FindAllString(name, -1) {
			tags = append(tags, strings.ToLower(m))
		}
	}
	return category, tags
}

// parentDeviceFromPath infers the owning device from the path layout
// .../Presets/<DeviceName>/<preset file>.
func parentDeviceFromPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, part := range parts {
		if part == "Presets" && i+1 < len(parts)-1 {
			return parts[i+1]
		}
	}
	return ""
}

// hashFile computes the streaming SHA-256 of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// probeWAV reads sample rate, channel count, and duration from a WAV file.
func probeWAV(path string, c *catalog.Content) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return err
	}
	if dec.SampleRate == 0 {
		return fmt.Errorf("no format chunk in %s", path)
	}

	c.SampleRate = int(dec.SampleRate)
	c.Channels = int(dec.NumChans)
	if dur, err := dec.Duration(); err == nil {
		c.DurationMS = dur.Milliseconds()
	}
	return nil
}

// Extract builds a catalog record from a single file. Metadata derivation is
// best-effort: a name that parses to nothing still indexes with empty
// taxonomy fields, but an unreadable file or unknown extension fails.
func Extract(path string, info fs.FileInfo, packageID *int64) (*catalog.Content, error) {
	contentType, ok := ContentTypeForPath(path)
	if !ok {
		return nil, bwerrors.New(bwerrors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported extension %q", filepath.Ext(path)), nil).
			WithDetail("path", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	category, tags := ParsePresetName(name)
	parentDevice := parentDeviceFromPath(path)

	// Presets under a device directory inherit it as category when the name
	// carries none.
	if category == "" && parentDevice != "" {
		category = parentDevice
	}

	c := &catalog.Content{
		Name:         name,
		FilePath:     path,
		ContentType:  contentType,
		PackageID:    packageID,
		ParentDevice: parentDevice,
		Category:     category,
		Tags:         tags,
		FileSize:     info.Size(),
		ModifiedAt:   info.ModTime(),
	}
	if parentDevice != "" {
		c.DeviceType = InferDeviceType(parentDevice)
	}

	hash, err := hashFile(path)
	if err != nil {
		return nil, bwerrors.ExtractionFailure(path, err)
	}
	c.FileHash = hash

	if contentType == catalog.ContentTypeSample && strings.EqualFold(filepath.Ext(path), ".wav") {
		// Audio probing is optional metadata; a malformed header does not
		// block indexing the file.
		_ = probeWAV(path, c)
	}

	return c, nil
}
