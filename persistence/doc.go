// Package persistence defines the on-disk layout for sealed range
// bitmaps: a fixed-size file header, per-band container directories,
// and CRC32 integrity checking.
package persistence
