// Package serialization implements the .born container used to persist
// network parameters and training checkpoints.
//
//	Format Structure (version 2):
//	  0x00 [4 bytes: Magic "BORN"]
//	  0x04 [4 bytes: Version (uint32 LE)]
//	  0x08 [4 bytes: Flags (uint32 LE)]
//	  0x0C [4 bytes: Reserved]
//	  0x10 [8 bytes: Header Size (uint64 LE)]
//	  0x18 [8 bytes: Data Size (uint64 LE)]
//	  0x20 [32 bytes: SHA-256 of the data section]
//	  0x40 [Header: JSON metadata]
//	       [Padding to a 64-byte boundary]
//	       [Tensor data: float64 little-endian, in header order]
//
// Every tensor is a flat float64 vector with a logical shape. Readers
// validate names, offsets, sizes and the checksum before returning data.
//
// Example usage:
//
//	tensors := []serialization.Tensor{{Name: "0.weight", Shape: []int{10, 2}, Data: w}}
//	if err := serialization.WriteFile("model.born", tensors, serialization.Header{ModelType: "Network"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	tensors, header, err := serialization.ReadFile("model.born")
package serialization
