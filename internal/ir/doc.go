// Package ir provides the shared data model for propcheck.
//
// This package contains type definitions and identity helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - A Task is a value type and is used directly as a map key
//   - Truth is ternary; Unknown never reaches the feedback loop
//   - Answer is an open string type: parsers keep whatever label the model wrote,
//     upper-cased, and PARSE_ERROR is an ordinary value
//   - Ledger identities are content-addressed (canonical JSON + SHA-256)
package ir
