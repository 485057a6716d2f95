// Package language maps language codes to the names used in translation
// prompts and to the ISO 639-1 codes WhisperX expects.
//
// The table covers the languages the upload form offers. Unknown codes are
// never rejected: they pass through so the model can interpret them.
package language
