// Package review exposes a reconciliation plan over HTTP for inspection.
//
// The feature is read-only: it loads the configured manifests on every
// request, reconciles them and returns the result. Nothing is ever executed
// on the server side; the script endpoint only returns text a human can
// review and run.
//
// # Endpoints
//
//   - GET /review/plan: the full plan as JSON
//   - GET /review/summary: aggregate counts only
//   - GET /review/script: the rendered shell script
//   - GET /review/duplicates?side=source|destination: duplicate groups
//
// A manifest that fails to load yields 502; mismatched algorithms yield 409
// unless the feature was built with AllowAlgorithmMismatch.
package review
