// Package naming derives output file names: the time-index image name of a
// particle file, the numeric frame index of an image, same-stem output
// paths, the stride suffix of particle output directories, and in-run
// detection of two inputs claiming one output.
package naming
