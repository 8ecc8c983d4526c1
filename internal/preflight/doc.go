// Package preflight provides readiness checks for the filesystem paths and
// external binaries a render depends on.
//
// The pipeline calls RunAll before decoding anything; a failed required
// check aborts the run before minutes are spent on frames that cannot be
// written. The `drumviz check` command prints the same results as a table.
// Unreadable segment sources are reported as advisory because the stitcher
// substitutes silence for them.
package preflight
