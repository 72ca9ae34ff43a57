// Package state persists the per-instance selection of an assembly.
//
// A [State] holds only what a user chose: diameter, vertical scale, variant
// and each segment's model, texture set and recolor string. Everything else
// is recomputed from the catalogs on load.
//
// States can be written as JSON, YAML, TOML or msgpack ([Marshal],
// [Unmarshal]) and kept in a [Store]. [CacheStore] layers on any
// [cache.Cache] (file or Redis); [MongoStore] keeps one document per
// instance in MongoDB.
package state
