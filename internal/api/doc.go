// Package api exposes the subburn pipeline over HTTP.
//
// The handler accepts multipart video uploads, reports job status from the
// registry, and streams finished outputs from the storage directory. Listener
// ownership and shutdown live in the daemon package; this package only maps
// requests onto pipeline calls and classified errors onto status codes.
package api
