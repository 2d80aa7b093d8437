// Package models defines domain entities and persistence interfaces for the AMTS taste sync service.
//
// The package contains two categories of types:
//
// 1. Value types flowing through the taste engine:
//   - [TrackActivity] : One listening-history entry from the music service
//   - [CategoryCounts] : Item name → play count, one map per category
//   - [Embedding] : Fixed-length normalized taste vector with its schema version
//   - [TopSummary] : Bounded ranked item lists per category, used for display and overlap
//   - [TasteProfile] : The per-user record owned by the profile store
//   - [SimilarityCandidate], [ComparisonResult], [SyncResult] : Read-only query projections
//
// 2. Persistent entities: Database-backed models with full lifecycle management
//   - [User] : Identity records with Apple Music user id, storefront, and token
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
// [TasteProfile] deliberately does not implement Model: it has no partial-update
// lifecycle, it is fully replaced on every sync and accessed through its own store interface.
package models
