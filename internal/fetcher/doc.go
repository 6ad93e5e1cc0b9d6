// Package fetcher runs a batch of screens through metadata retrieval and
// artifact download.
//
// Screens are processed strictly in input order, one at a time, and the two
// artifacts of a screen are downloaded HTML first. A failure at any step of
// one screen is captured in that screen's ItemResult, logged with the screen
// ID, and never stops the batch. Run holds an exclusive file lock on the
// output directory for its whole duration so two processes never write the
// same tree.
//
// The Report returned by Run lists every input ID with its outcome. Callers
// derive the process exit status from Report.Err.
package fetcher
