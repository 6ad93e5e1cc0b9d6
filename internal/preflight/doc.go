// Package preflight provides readiness checks for the Stitch API and the
// filesystem paths a fetch run writes to.
//
// The CLI "stitchfetch check" command runs RunAll and renders the results
// as a table. Individual checks are exported so callers can run a subset.
package preflight
