// Package documents persists the project document in the project_state
// container of the local SQLite store.
//
// The document is stored as a single JSON value per key. Get on a missing
// key returns (nil, nil); only driver and decoding failures are errors.
//
// Typical Usage
//
//	repo := documents.NewSQLiteRepository(db)
//	_ = repo.Put(ctx, "current", project)
//	p, _ := repo.Get(ctx, "current") // nil when never saved
package documents
