// Package taste implements the embedding-and-similarity engine.
//
// # Pipeline
//
// The [Engine] orchestrates four stages:
//
//  1. [Normalize] : raw listening-history entries → per-category count maps
//     - A track contributes to every category it has data for
//     - Multi-genre tracks add their full play weight to each genre
//
//  2. [Build] : count maps → fixed-length weighted vector plus a top-N summary
//     - Feature basis is version-pinned via [SchemaConfig]
//     - Category weights applied before L2 normalization
//
//  3. Profile store : atomic full-replace persistence, one record per user
//
//  4. Ranking and comparison : cosine similarity over stored unit vectors
//     - [Engine.Rank] scans the population and returns ordered candidates
//     - [Engine.Compare] scores one pair and lists shared interests
//
// # Comparability
//
// Embeddings built under different schema versions are never compared: the
// ranker skips mismatched profiles and the comparator rejects the pair. The
// schema version travels inside every stored embedding.
//
// All engine state lives in the profile store; the engine itself holds no
// session state between calls, so syncs for different users and read-only
// queries may run concurrently.
package taste
