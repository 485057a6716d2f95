// Package translation translates subtitle segments through a chat completion
// collaborator while keeping the output aligned one-to-one with the input.
//
// Segments are sent in numbered chunks. Each reply is split into lines, the
// echoed numbering is stripped, and lines are assigned back to segments by
// position only. A short reply is padded with the remaining segments'
// original text; surplus lines are dropped. Alignment is therefore preserved
// even when the model merges or omits lines, at the cost of possibly shifting
// later translations onto earlier timings, which is logged as an
// alignment_mismatch warning.
package translation
