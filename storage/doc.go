// Package storage persists records behind the execution engine.
//
// Each table is a chunked record store: an in-memory buffer that seals
// to an immutable, numbered chunk file every ChunkSize records, read
// back in strict append order. Indexed columns are mirrored into hash
// indexes, one file per (table, field), mapping stringified values to
// record ids. The JSD container holds one JSON document per file with
// content-hash write elision and memory-mapped I/O for documents of
// 1 MiB and up.
//
// # Usage
//
//	schema := core.NewSchema()
//	schema.Register(usersTable)
//
//	store := storage.NewMemoryStore(schema)
//	if err := store.RegisterTable(usersTable); err != nil {
//	    return err
//	}
//
//	count, err := store.Write("users", rows)
//
// A file-backed store works the same way:
//
//	store, err := storage.NewFileStore("/var/data/mydb", schema)
//
// The store assumes one writer at a time per table; sealed chunks are
// immutable and safe to read concurrently.
package storage
