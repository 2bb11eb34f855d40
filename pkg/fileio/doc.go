// Package fileio loads and stores part memories in the common AVR
// firmware file formats: Intel HEX, Motorola S-record, raw binary and
// (read-only) ELF.
//
// Readers populate a memory's buffer and its allocation tags, so sparse
// images round-trip without inventing filler bytes. Writers serialize
// either an explicit byte count or, when none is given, exactly the
// bytes marked as written.
//
// Format autodetection inspects file content; extension-based guessing
// for files that do not exist yet is a separate helper the caller opts
// into.
package fileio
