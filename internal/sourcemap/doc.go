// Package sourcemap holds the position-mapping model shared by the pipeline,
// its source-map v3 JSON codec, and Merge, which composes two mappings
// end to end so that intermediate coordinates disappear.
package sourcemap
