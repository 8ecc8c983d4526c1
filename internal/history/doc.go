// Package history records render runs and their segment load diagnostics in
// a SQLite database under the state directory.
//
// Store exposes a small API: StartRun inserts a running record, AddDiagnostic
// attaches per-segment load failures, FinishRun stamps the outcome, and
// List/Get/Diagnostics read them back for the `drumviz history` command.
package history
