// Package fuse decodes and encodes AVR fuse bytes against a device's
// bitfield configuration table.
//
// A fuse byte packs several named bitfields, each with a mask, a shift
// and a list of discrete value/label options. Dissect takes a raw byte
// apart into labelled selections; Synthesize builds a raw byte from
// selections; Default produces the datasheet default.
//
// All three start from an all-ones baseline so that bits not claimed by
// any known bitfield stay 1, matching the erased-fuse convention.
package fuse
