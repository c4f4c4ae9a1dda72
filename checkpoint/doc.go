// Package checkpoint provides storage for named model-weight blobs.
//
// Store is the interface for reading and writing checkpoint blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with atomic writes and mmap reads
//   - MemoryStore: In-memory store for testing
//   - ThrottledStore: Rate-limits writes to any inner store
//   - minio.Store: MinIO / S3-compatible object storage
//   - s3.Store: Amazon S3 with multipart uploads
//
// # Format
//
// Checkpoint payloads use a self-describing binary format (see Encode and
// Decode): a fixed header with magic, version, compression codec name and a
// CRC32 of the payload, followed by named float32 parameter sections.
package checkpoint
