// Package preflight provides readiness checks for the external binaries,
// directories, and services subburn depends on.
//
// These checks run in two contexts:
//   - "subburn serve" logs a dependency snapshot and warns about missing
//     binaries before accepting uploads.
//   - The CLI "subburn status" command renders every check, including the
//     LLM round trip that serve skips to keep startup fast.
package preflight
