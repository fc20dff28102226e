// Package variables is the key/value store the pipeline reads its
// configuration variables from at graph-construction time and that
// record_advertisers writes the advertiser list back to.
//
// Backends:
//
//   - memory: seeded from the "variables.values" config map
//   - env: reads SPINDLE_VAR_<NAME>, writes are kept in memory
//   - redis: go-redis, keys namespaced by a prefix
package variables
