// Package language maps between ISO 639 language codes and provides
// statistical language detection for document validation.
package language
