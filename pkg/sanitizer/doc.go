// Package sanitizer normalizes user supplied text before it is validated and
// stored.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input is never an error here, it is normalized as
// far as possible and left to the validators to reject.
//
// Normalization includes:
//   - Display names (offices): collapse inner whitespace, trim the ends
//   - Usernames: trim and lowercase, inner whitespace removed
//   - Emails: trim and lowercase
//   - Identifiers and dates: trim only
package sanitizer
