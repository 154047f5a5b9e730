// Package httpd serves the shed's read-only HTTP API: document
// listings, single records, canonical content, and bundle manifests.
package httpd
