package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/born-ml/cfconv/internal/tensor"
)

// WriteSafeTensors writes tensors to a SafeTensors file at path.
func WriteSafeTensors(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, tensors, metadata); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	return file.Close()
}

// Write encodes tensors in SafeTensors format.
//
// Tensors are written in alphabetical order by name. The checksum of the
// data section is added to the metadata under MetadataChecksum.
func Write(w io.Writer, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := slices.Sorted(maps.Keys(tensors))
	if len(names) > MaxTensorCount {
		return fmt.Errorf("%w: %d", ErrTooManyTensors, len(names))
	}

	header := make(map[string]any, len(names)+1)
	var data bytes.Buffer

	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		raw := tensors[name]
		dtype, err := dtypeToSafeTensors(raw.DType())
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}

		start := int64(data.Len())
		switch raw.DType() {
		case tensor.Float64:
			err = binary.Write(&data, binary.LittleEndian, raw.AsFloat64())
		case tensor.Int64:
			err = binary.Write(&data, binary.LittleEndian, raw.AsInt64())
		}
		if err != nil {
			return fmt.Errorf("failed to encode tensor %s: %w", name, err)
		}

		shape := make([]int64, len(raw.Shape()))
		for i, dim := range raw.Shape() {
			shape[i] = int64(dim)
		}
		header[name] = SafeTensorHeader{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{start, int64(data.Len())},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	maps.Copy(meta, metadata)
	meta[MetadataChecksum] = ComputeChecksum(data.Bytes())
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	// Write header size (8 bytes, little-endian uint64)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}
