package indexer

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

func TestContentTypeForPath(t *testing.T) {
	tests := []struct {
		path string
		want catalog.ContentType
		ok   bool
	}{
		{"/lib/a.bwpreset", catalog.ContentTypePreset, true},
		{"/lib/A.BWPRESET", catalog.ContentTypePreset, true},
		{"/lib/kick.wav", catalog.ContentTypeSample, true},
		{"/lib/loop.flac", catalog.ContentTypeSample, true},
		{"/lib/kit.multisample", catalog.ContentTypeMultisample, true},
		{"/lib/song.bwproject", catalog.ContentTypeProject, true},
		{"/lib/readme.txt", "", false},
		{"/lib/noext", "", false},
	}
	for _, tt := range tests {
		got, ok := ContentTypeForPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if ok {
			assert.Equal(t, tt.want, got, tt.path)
		}
	}
}

func TestParsePresetName(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantCategory string
		wantTags     []string
	}{
		{"dash prefix", "Bass - Analog Warmth", "Bass", []string{"analog"}},
		{"bracket prefix", "[Bass] Deep Sub", "Bass", nil},
		{"no prefix", "Plain Name", "", nil},
		{"keywords only", "Dark Ambient Pad", "", []string{"dark", "ambient", "pad"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, tags := ParsePresetName(tt.input)
			assert.Equal(t, tt.wantCategory, category)
			for _, want := range tt.wantTags {
				assert.Contains(t, tags, want)
			}
		})
	}
}

func TestInferDeviceType(t *testing.T) {
	tests := []struct {
		device string
		want   catalog.DeviceType
	}{
		{"Polymer", catalog.DeviceTypeInstrument},
		{"FM-4", catalog.DeviceTypeInstrument},
		{"Delay-4", catalog.DeviceTypeAudioFX},
		{"Arpeggiator", catalog.DeviceTypeNoteFX},
		{"LFO", catalog.DeviceTypeModulator},
		{"Instrument Layer", catalog.DeviceTypeInstrument},
		{"Tool", catalog.DeviceTypeUtility},
	}
	for _, tt := range tests {
		got := InferDeviceType(tt.device)
		require.NotNil(t, got, tt.device)
		assert.Equal(t, tt.want, *got, tt.device)
	}

	assert.Nil(t, InferDeviceType("Zzzz"))
}

func TestParentDeviceFromPath(t *testing.T) {
	assert.Equal(t, "Polymer",
		parentDeviceFromPath("/lib/Presets/Polymer/Warm Bass.bwpreset"))
	assert.Equal(t, "",
		parentDeviceFromPath("/lib/Samples/kick.wav"))
	// A file directly under Presets has no device directory.
	assert.Equal(t, "",
		parentDeviceFromPath("/lib/Presets/loose.bwpreset"))
}

func TestExtract_Preset(t *testing.T) {
	// Given a preset file under a device directory
	dir := t.TempDir()
	presetDir := filepath.Join(dir, "Presets", "Polymer")
	require.NoError(t, os.MkdirAll(presetDir, 0o755))
	path := filepath.Join(presetDir, "Bass - Warm Sub.bwpreset")
	require.NoError(t, os.WriteFile(path, []byte("preset-bytes"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	pkgID := int64(7)

	// When extracting
	c, err := Extract(path, info, &pkgID)
	require.NoError(t, err)

	// Then identity, taxonomy, and file info are all derived
	assert.Equal(t, "Bass - Warm Sub", c.Name)
	assert.Equal(t, catalog.ContentTypePreset, c.ContentType)
	assert.Equal(t, "Bass", c.Category)
	assert.Equal(t, "Polymer", c.ParentDevice)
	require.NotNil(t, c.DeviceType)
	assert.Equal(t, catalog.DeviceTypeInstrument, *c.DeviceType)
	require.NotNil(t, c.PackageID)
	assert.Equal(t, pkgID, *c.PackageID)
	assert.Equal(t, int64(len("preset-bytes")), c.FileSize)
	assert.Len(t, c.FileHash, 64)
	assert.False(t, c.ModifiedAt.IsZero())
}

func TestExtract_InheritsCategoryFromDevice(t *testing.T) {
	dir := t.TempDir()
	presetDir := filepath.Join(dir, "Presets", "Polymer")
	require.NoError(t, os.MkdirAll(presetDir, 0o755))
	path := filepath.Join(presetDir, "Plain.bwpreset")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	c, err := Extract(path, info, nil)
	require.NoError(t, err)
	assert.Equal(t, "Polymer", c.Category)
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	_, err = Extract(path, info, nil)
	require.Error(t, err)
	assert.Equal(t, bwerrors.ErrCodeUnsupportedFormat, bwerrors.GetCode(err))
}

func TestExtract_WAVAudioProperties(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kick.wav")
	require.NoError(t, os.WriteFile(path, pcmWAV(44100, 2), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	c, err := Extract(path, info, nil)
	require.NoError(t, err)
	assert.Equal(t, catalog.ContentTypeSample, c.ContentType)
	assert.Equal(t, 44100, c.SampleRate)
	assert.Equal(t, 2, c.Channels)
}

// pcmWAV builds a minimal valid 16-bit PCM WAV file.
func pcmWAV(sampleRate, channels int) []byte {
	data := make([]byte, 8) // two stereo frames of silence
	blockAlign := channels * 2

	var buf []byte
	u32 := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}
	u16 := func(v uint16) []byte {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		return b
	}

	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, u32(uint32(36+len(data)))...)
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = append(buf, u32(16)...)
	buf = append(buf, u16(1)...) // PCM
	buf = append(buf, u16(uint16(channels))...)
	buf = append(buf, u32(uint32(sampleRate))...)
	buf = append(buf, u32(uint32(sampleRate*blockAlign))...)
	buf = append(buf, u16(uint16(blockAlign))...)
	buf = append(buf, u16(16)...)
	buf = append(buf, []byte("data")...)
	buf = append(buf, u32(uint32(len(data)))...)
	buf = append(buf, data...)
	return buf
}
