package storage

import (
	"os"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
)

// SharedMemoryThreshold is the serialized size at which JSD documents
// switch from direct file I/O to memory-mapped I/O.
const SharedMemoryThreshold = 1 << 20

// JSDFile binds one JSON-serializable document to one path. The handle
// caches the parsed document and a content hash of its serialized form;
// writing a document whose hash matches the cache touches nothing on
// disk. Handles are single-owner; concurrent use needs external
// synchronization.
//
// Writes and Reads count the underlying file operations actually
// performed, so callers can observe write elision.
type JSDFile struct {
	path   string
	cached any
	hash   uint64
	loaded bool
	region *mmapRegion

	Writes int
	Reads  int
}

func NewJSDFile(path string) *JSDFile {
	return &JSDFile{path: path}
}

func (f *JSDFile) Path() string { return f.path }

// Exists reports whether the document file is present on disk.
func (f *JSDFile) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Write serializes data and persists it, unless the content hash of the
// serialized payload matches the cached hash, in which case the write is
// elided. Payloads at or above SharedMemoryThreshold go through a
// memory map sized exactly to the payload; smaller ones are written
// directly.
func (f *JSDFile) Write(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return storageErrorf(err, "serialize %s", f.path)
	}

	hash := xxh3.Hash(payload)
	if f.loaded && hash == f.hash {
		f.cached = data
		return nil
	}

	if len(payload) >= SharedMemoryThreshold {
		err = writeMmap(f.path, payload)
	} else {
		err = os.WriteFile(f.path, payload, 0644)
	}
	if err != nil {
		return storageErrorf(err, "write %s", f.path)
	}

	f.Writes++
	f.cached = data
	f.hash = hash
	f.loaded = true
	return nil
}

// Read returns the cached document if present, otherwise loads it from
// disk, via memory map for large files, and caches both the parsed value
// and its content hash.
func (f *JSDFile) Read() (any, error) {
	if f.loaded {
		return f.cached, nil
	}

	info, err := os.Stat(f.path)
	if err != nil {
		return nil, storageErrorf(err, "read %s", f.path)
	}

	var payload []byte
	if info.Size() >= SharedMemoryThreshold {
		region, err := openMmap(f.path)
		if err != nil {
			return nil, storageErrorf(err, "read %s", f.path)
		}
		f.region = region
		payload = region.data
	} else {
		payload, err = os.ReadFile(f.path)
		if err != nil {
			return nil, storageErrorf(err, "read %s", f.path)
		}
	}

	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		f.releaseRegion()
		return nil, storageErrorf(err, "parse %s", f.path)
	}

	f.Reads++
	f.cached = value
	f.hash = xxh3.Hash(payload)
	f.loaded = true
	return value, nil
}

// Append shallow-merges the top-level keys of data into the current
// document, last writer wins per key, then writes the result. A missing
// file starts from an empty document. The existing document must be a
// JSON object.
func (f *JSDFile) Append(data map[string]any) error {
	current := map[string]any{}

	if f.loaded || f.Exists() {
		value, err := f.Read()
		if err != nil {
			return err
		}
		existing, ok := value.(map[string]any)
		if !ok {
			return storageErrorf(nil, "append to non-object document %s", f.path)
		}
		for key, val := range existing {
			current[key] = val
		}
	}

	for key, val := range data {
		current[key] = val
	}
	return f.Write(current)
}

// Flush forces the cached document to disk, bypassing write elision.
// A handle with nothing cached flushes nothing.
func (f *JSDFile) Flush() error {
	if !f.loaded {
		return nil
	}

	payload, err := json.Marshal(f.cached)
	if err != nil {
		return storageErrorf(err, "serialize %s", f.path)
	}
	if len(payload) >= SharedMemoryThreshold {
		err = writeMmap(f.path, payload)
	} else {
		err = os.WriteFile(f.path, payload, 0644)
	}
	if err != nil {
		return storageErrorf(err, "flush %s", f.path)
	}

	f.Writes++
	f.hash = xxh3.Hash(payload)
	return nil
}

// ClearCache drops the cached document and hash and releases any open
// memory map. Idempotent; must be called before the same path is opened
// through another handle.
func (f *JSDFile) ClearCache() error {
	err := f.releaseRegion()
	f.cached = nil
	f.hash = 0
	f.loaded = false
	return err
}

func (f *JSDFile) releaseRegion() error {
	if f.region == nil {
		return nil
	}
	err := f.region.Close()
	f.region = nil
	return err
}
