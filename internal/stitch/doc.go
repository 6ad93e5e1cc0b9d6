// Package stitch provides the minimal Stitch API client used to look up screen
// metadata.
//
// Requests authenticate with a static X-Goog-Api-Key header and are scoped to
// one project. A screen record may reference an HTML export and a screenshot;
// Artifacts lists whichever are present in fixed order so callers never treat
// a missing reference as an error. Non-2xx responses surface as *APIError with
// the message from the Google error envelope when one is returned.
package stitch
