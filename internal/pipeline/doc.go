// Package pipeline runs the batch stages: file discovery, per-file planning
// and processing, and the end-of-run summary. Every stage is a sequential
// loop that checks for cancellation between files, counts skips and
// failures in [RunStats], and never lets one bad file stop the batch.
//
// Stages:
//   - RunExtract: down-sample NetCDF fields (input dir -> output dir).
//   - RunPoints: particle text dumps -> .vtu point clouds.
//   - RunRender: paired Eulerian/Lagrangian files -> img.<N>.png.
//   - RunVideo: img.<N>.png frames -> one AVI.
//   - Inspect: per-file summary table with outlier flags.
package pipeline
