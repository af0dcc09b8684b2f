// Package serialization reads and writes model weights in the SafeTensors
// format.
//
//	File Structure:
//	  [8 bytes: header size N (uint64 LE)]
//	  [N bytes: JSON header]
//	  [tensor data: raw little-endian bytes]
//
// The header maps tensor names to {dtype, shape, data_offsets}. The
// optional "__metadata__" entry holds string pairs; the writer adds the
// SHA-256 checksum of the data section under "sha256" and the reader
// verifies it when present.
//
// Only F64 and I64 tensors are supported.
//
// Example usage:
//
//	err := serialization.WriteSafeTensors("weights.safetensors", stateDict, map[string]string{
//	    "config": string(cfgYAML),
//	})
//
//	tensors, metadata, err := serialization.ReadSafeTensors("weights.safetensors")
package serialization
