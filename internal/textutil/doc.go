// Package textutil provides text helpers shared by the translation and
// synthesis stages.
//
// Chunk splits long scripts into provider-sized pieces, preferring sentence
// boundaries, then whitespace, then a hard rune cut. Normalize and SameText
// compare texts after Unicode NFC normalization and whitespace folding so a
// translation that merely echoes its input can be detected.
package textutil
