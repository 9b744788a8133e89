// Package catalog stores manifest snapshots in a SQL database.
//
// Each snapshot is a named copy of one manifest, kept in the
// manifest_records table. Snapshots let a manifest from another machine be
// kept next to the local one and let duplicate content be queried without
// loading the whole manifest.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	cat := catalog.New(db)
//	if err := cat.Migrate(ctx); err != nil { ... }
//	n, err := cat.Import(ctx, "laptop", m)
//	m, err = cat.Load(ctx, "laptop")
package catalog
