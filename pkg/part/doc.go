// Package part models AVR devices and their memories.
//
// A Part describes one microcontroller: its identity, device signature,
// programming-mode capabilities, fuse bitfield configuration and a set of
// named memories (flash, eeprom, fuses, lock, signature, ...). Memories
// carry a byte buffer plus parallel allocation tags so that sparse file
// formats can be written back faithfully.
//
// Parts are immutable once loaded from a catalog; the memory buffers
// inside them are mutable and owned by whichever programmer session is
// currently bound to the part.
package part
