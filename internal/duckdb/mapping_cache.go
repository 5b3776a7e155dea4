package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gungorbudak/seten-cli/internal/mapping"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// MappingCache keeps parsed coordinate mappings as gob files so large
// BioMart exports are decoded once:
//
//	<dir>/<organism>.gob       (serialized entries)
//	<dir>/<organism>.gob.meta  (source file fingerprint)
type MappingCache struct {
	dir string
}

// NewMappingCache creates a mapping cache in dir.
func NewMappingCache(dir string) *MappingCache {
	return &MappingCache{dir: dir}
}

func (mc *MappingCache) gobPath(name string) string {
	return filepath.Join(mc.dir, name+".gob")
}

func (mc *MappingCache) metaPath(name string) string {
	return filepath.Join(mc.dir, name+".gob.meta")
}

// Valid reports whether the cached entries of name were built from src.
func (mc *MappingCache) Valid(name string, src FileFingerprint) bool {
	meta, err := mc.readMeta(name)
	if err != nil {
		return false
	}
	if meta["size"] != strconv.FormatInt(src.Size, 10) ||
		meta["modtime"] != src.ModTime.UTC().Format(time.RFC3339Nano) {
		return false
	}
	_, err = os.Stat(mc.gobPath(name))
	return err == nil
}

// Load reads the cached entries of name.
func (mc *MappingCache) Load(name string) ([]mapping.Entry, error) {
	f, err := os.Open(mc.gobPath(name))
	if err != nil {
		return nil, fmt.Errorf("open mapping cache: %w", err)
	}
	defer f.Close()

	var entries []mapping.Entry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode mapping cache: %w", err)
	}
	return entries, nil
}

// Write serializes entries of name built from src.
func (mc *MappingCache) Write(name string, entries []mapping.Entry, src FileFingerprint) error {
	if err := os.MkdirAll(mc.dir, 0755); err != nil {
		return fmt.Errorf("create mapping cache directory: %w", err)
	}

	f, err := os.Create(mc.gobPath(name))
	if err != nil {
		return fmt.Errorf("create mapping cache: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		f.Close()
		os.Remove(mc.gobPath(name))
		return fmt.Errorf("encode mapping cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mapping cache: %w", err)
	}

	lines := []string{
		"source=" + src.Path,
		"size=" + strconv.FormatInt(src.Size, 10),
		"modtime=" + src.ModTime.UTC().Format(time.RFC3339Nano),
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return os.WriteFile(mc.metaPath(name), []byte(strings.Join(lines, "\n")), 0644)
}

// LoadIndex builds the coordinate index for the mapping file at path, using
// the cached entries when they match the file and refreshing them otherwise.
func (mc *MappingCache) LoadIndex(name, path string) (*mapping.Index, error) {
	fp, err := StatFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("mapping %s: %w", path, mapping.ErrResourceNotFound)
		}
		return nil, fmt.Errorf("stat mapping: %w", err)
	}

	if mc.Valid(name, fp) {
		if entries, err := mc.Load(name); err == nil {
			return mapping.NewIndex(entries)
		}
	}

	entries, err := mapping.LoadMapping(path)
	if err != nil {
		return nil, err
	}
	if err := mc.Write(name, entries, fp); err != nil {
		return nil, err
	}
	return mapping.NewIndex(entries)
}

// Clear removes the cached files of name.
func (mc *MappingCache) Clear(name string) {
	os.Remove(mc.gobPath(name))
	os.Remove(mc.metaPath(name))
}

func (mc *MappingCache) readMeta(name string) (map[string]string, error) {
	data, err := os.ReadFile(mc.metaPath(name))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
