// Package miniren is a pure-Go implementation of the ren.Runtime
// contract covering the small language subset the boundary protocol
// exercises: integer and decimal arithmetic, words and set-words,
// blocks and groups, func/if/for/return, entrap, first, the error? and block?
// predicates, print, get-in field access on error objects, and the
// FORM/MOLD spelling pair.
//
// It exists so engine lifecycle, ownership, and protocol properties
// can be tested hermetically, and doubles as a dependency-free backend
// for embedders who do not ship a libr3 build. It is not a general
// scripting language: source outside the subset raises an ordinary
// script error, exactly as a foreign runtime would.
package miniren
