// Package download streams artifact URLs to local files.
//
// A download opens (creating or truncating) its destination, then walks an
// explicit redirect loop: 301 and 302 responses are resolved against the
// request URL and retried up to a hop limit, every other response is final.
// Final 2xx bodies are streamed to disk while a SHA256 is computed. With
// strict status handling a non-2xx final response fails the download; with it
// disabled the body is saved as the artifact. Any failure removes the
// destination file.
package download
