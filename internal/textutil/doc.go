// Package textutil sanitizes user-supplied names before they become part of
// filesystem paths.
package textutil
