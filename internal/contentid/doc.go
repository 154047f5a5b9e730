// Package contentid derives stable content identifiers for documents.
//
// A content identifier is the keyed BLAKE3 digest of a document's
// canonical byte form. Canonicalization makes identity insensitive to
// Unicode representation (NFC) and trailing-whitespace differences, so
// re-importing the same text under any equivalent encoding always
// yields the same identifier. Manifest digests for sealed bundles use
// a separate key domain so the two identifier spaces cannot collide.
package contentid
