// Package blobs stores full-resolution photo binaries keyed by photo id,
// separately from the project document so large payloads never inflate it.
//
// Two backends implement Repository: SQLiteRepository (the image_assets
// container of the local store) and S3Repository (an S3-compatible bucket).
// Both record a BLAKE2b-256 digest on Put and verify it on Get; a mismatch
// is reported as common.ErrBlobCorrupt.
package blobs
