// Package canon produces the canonical byte form used for
// content-addressed identity in molnorm.
//
// MarshalCanonical renders a value as RFC 8785 canonical JSON: object
// keys sorted by UTF-16 code units, strings NFC normalized, no HTML
// escaping, no floats, no null. HashRecord turns that byte form into a
// domain-separated SHA-256 identity.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - Identical logical content must serialize identically across runs
//   - Journal record IDs and harness golden traces both build on this
package canon
