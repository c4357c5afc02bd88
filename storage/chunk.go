package storage

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"
	"github.com/goccy/go-json"

	"github.com/alaamer12/json-orm/core"
)

// DefaultChunkSize is the number of buffered records that seals a chunk.
const DefaultChunkSize = 1000

// ChunkManager stores each table as a live in-memory buffer plus zero
// or more sealed, immutable chunk files. Once the buffer reaches the
// chunk size it is sealed to the next numbered chunk file and reset.
// The buffer is mirrored to its own file on every append so no records
// are lost between handles.
type ChunkManager struct {
	fs        billy.Filesystem
	chunkSize int

	mu      sync.RWMutex
	buffers map[string][]core.Row
	counts  map[string]int
	known   map[string]bool
}

func NewChunkManager(fs billy.Filesystem, chunkSize int) *ChunkManager {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkManager{
		fs:        fs,
		chunkSize: chunkSize,
		buffers:   make(map[string][]core.Row),
		counts:    make(map[string]int),
		known:     make(map[string]bool),
	}
}

func chunkPath(table string, id int) string {
	return fmt.Sprintf("data/%s/chunk_%d.json", table, id)
}

func bufferPath(table string) string {
	return fmt.Sprintf("data/%s/buffer.json", table)
}

// Append adds one record to the table's buffer, sealing a chunk when
// the buffer fills.
func (cm *ChunkManager) Append(table string, row core.Row) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.load(table); err != nil {
		return err
	}

	cm.buffers[table] = append(cm.buffers[table], row)
	if len(cm.buffers[table]) >= cm.chunkSize {
		return cm.seal(table)
	}
	return cm.writeBuffer(table)
}

// AllRecords returns every record of the table in strict append order:
// sealed chunks by ascending id, then the live buffer.
func (cm *ChunkManager) AllRecords(table string) ([]core.Row, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.load(table); err != nil {
		return nil, err
	}

	var records []core.Row
	for id := 0; id < cm.counts[table]; id++ {
		rows, err := cm.readChunk(table, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rows...)
	}
	records = append(records, cm.buffers[table]...)
	return records, nil
}

// ReadChunk returns the records of one sealed chunk.
func (cm *ChunkManager) ReadChunk(table string, id int) ([]core.Row, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.readChunk(table, id)
}

// RecordCount returns the number of records stored for the table.
func (cm *ChunkManager) RecordCount(table string) int {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.load(table); err != nil {
		return 0
	}
	return cm.counts[table]*cm.chunkSize + len(cm.buffers[table])
}

// SealedChunks returns the number of sealed chunk files for the table.
func (cm *ChunkManager) SealedChunks(table string) int {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.load(table); err != nil {
		return 0
	}
	return cm.counts[table]
}

// BufferedRecords returns the size of the table's live buffer.
func (cm *ChunkManager) BufferedRecords(table string) int {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.load(table); err != nil {
		return 0
	}
	return len(cm.buffers[table])
}

// ClearTable removes every chunk file and the buffer for the table.
func (cm *ChunkManager) ClearTable(table string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.load(table); err != nil {
		return err
	}
	for id := 0; id < cm.counts[table]; id++ {
		if err := cm.fs.Remove(chunkPath(table, id)); err != nil && !os.IsNotExist(err) {
			return storageErrorf(err, "remove chunk %d of %s", id, table)
		}
	}
	if err := cm.fs.Remove(bufferPath(table)); err != nil && !os.IsNotExist(err) {
		return storageErrorf(err, "remove buffer of %s", table)
	}
	cm.buffers[table] = nil
	cm.counts[table] = 0
	return nil
}

// load recovers the sealed-chunk count and live buffer from the
// filesystem the first time a table is touched by this handle.
func (cm *ChunkManager) load(table string) error {
	if cm.known[table] {
		return nil
	}
	cm.known[table] = true

	count := 0
	for {
		if _, err := cm.fs.Stat(chunkPath(table, count)); err != nil {
			break
		}
		count++
	}
	cm.counts[table] = count

	data, err := util.ReadFile(cm.fs, bufferPath(table))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return storageErrorf(err, "read buffer of %s", table)
	}
	var buffer []core.Row
	if err := json.Unmarshal(data, &buffer); err != nil {
		return storageErrorf(err, "parse buffer of %s", table)
	}
	cm.buffers[table] = buffer
	return nil
}

func (cm *ChunkManager) readChunk(table string, id int) ([]core.Row, error) {
	data, err := util.ReadFile(cm.fs, chunkPath(table, id))
	if err != nil {
		return nil, storageErrorf(err, "read chunk %d of %s", id, table)
	}
	var rows []core.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, storageErrorf(err, "parse chunk %d of %s", id, table)
	}
	return rows, nil
}

func (cm *ChunkManager) seal(table string) error {
	id := cm.counts[table]
	data, err := json.Marshal(cm.buffers[table])
	if err != nil {
		return storageErrorf(err, "serialize chunk %d of %s", id, table)
	}
	if err := util.WriteFile(cm.fs, chunkPath(table, id), data, 0644); err != nil {
		return storageErrorf(err, "write chunk %d of %s", id, table)
	}
	cm.counts[table] = id + 1
	cm.buffers[table] = nil
	return cm.writeBuffer(table)
}

func (cm *ChunkManager) writeBuffer(table string) error {
	buffer := cm.buffers[table]
	if buffer == nil {
		buffer = []core.Row{}
	}
	data, err := json.Marshal(buffer)
	if err != nil {
		return storageErrorf(err, "serialize buffer of %s", table)
	}
	if err := util.WriteFile(cm.fs, bufferPath(table), data, 0644); err != nil {
		return storageErrorf(err, "write buffer of %s", table)
	}
	return nil
}
