// Package fbas defines the core types shared by the packages that manage and
// post-process quorum-intersection analyses of Federated Byzantine Agreement
// Systems (FBAS).
//
// The analysis itself is performed by an Engine, which is expensive. The other
// packages make repeated queries against it tractable:
//
//	                +-------------+       +-----------+      +-----------+
//	raw topology -->|  topology   |------>|   cache   |----->|  engine   |
//	                | Canonicalize|  key  |GetOrCompute| miss |  Analyze  |
//	                +-------------+       +-----------+      +-----------+
//	                                            |
//	                                            v result
//	metadata ------>+-------------+       +-----------+
//	                |  grouping   |------>| analyzer  |-----> Report
//	exclusions ---->|  Resolve    |       |  project  |
//	                +-------------+       +-----------+
//	                                            |
//	                                            v
//	                                      +-----------+
//	                                      | setfamily |
//	                                      +-----------+
//
// The topology package normalizes descriptions so that equal quorum logic
// yields equal canonical values. The cache package memoizes engine results per
// canonical topology. The grouping package maps participants to organizations,
// ISPs or countries, and the setfamily package keeps minimal-set families
// minimal while they are relabeled or filtered. The analyzer package ties
// these together for one request.
package fbas
