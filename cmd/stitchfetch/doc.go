// Package main hosts the stitchfetch CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration, structured logging, the
// Stitch API client, the downloader, and the history ledger into the fetcher,
// then renders the per-screen report. Besides fetch it exposes configuration
// scaffolding, history inspection, and a preflight check.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// surfaced here through commands and flags.
package main
