// Package integrity provides health checks for the site's storage bucket.
//
// # Checks Provided
//
//   - Structure: Checks that the assets/, components/ and pages/ folders exist in the bucket.
//   - Fragments: Verifies that components/header.html and components/footer.html exist and are
//     fragments rather than full documents, and that pages/index.html exposes both mount points.
//
// # HTTP Endpoints
//
// All endpoints sit behind the API key middleware.
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/fragments : Runs fragment check.
package integrity
