package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/cfconv/internal/tensor"
)

// ReadSafeTensors reads every tensor and the metadata of a SafeTensors file.
func ReadSafeTensors(path string) (map[string]*tensor.RawTensor, map[string]string, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Read(file)
}

// Read decodes a SafeTensors stream.
//
// The header is validated before any tensor is decoded: names, offsets and
// sizes must be consistent with the data section. If the metadata carries
// a checksum, the data section must match it.
func Read(r io.Reader) (map[string]*tensor.RawTensor, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	metas, metadata, err := parseHeader(headerJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	if err := ValidateTensorOffsets(metas, int64(len(data))); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}
	if sum, ok := metadata[MetadataChecksum]; ok {
		if err := ValidateChecksum(data, sum); err != nil {
			return nil, nil, err
		}
	}

	tensors := make(map[string]*tensor.RawTensor, len(metas))
	for _, m := range metas {
		raw, err := decodeTensor(m, data[m.Offset:m.Offset+m.Size])
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", m.Name, err)
		}
		tensors[m.Name] = raw
	}
	return tensors, metadata, nil
}

func parseHeader(headerJSON []byte) ([]TensorMeta, map[string]string, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &entries); err != nil {
		return nil, nil, err
	}

	var metadata map[string]string
	if raw, ok := entries[metadataKey]; ok {
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return nil, nil, fmt.Errorf("invalid metadata: %w", err)
		}
		delete(entries, metadataKey)
	}
	if len(entries) > MaxTensorCount {
		return nil, nil, fmt.Errorf("%w: %d", ErrTooManyTensors, len(entries))
	}

	metas := make([]TensorMeta, 0, len(entries))
	for name, raw := range entries {
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}

		var h SafeTensorHeader
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		dtype, err := dtypeFromSafeTensors(h.DType)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", name, err)
		}

		shape := make(tensor.Shape, len(h.Shape))
		for i, dim := range h.Shape {
			shape[i] = int(dim)
		}
		if err := shape.Validate(); err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", name, err)
		}

		m := TensorMeta{
			Name:   name,
			DType:  dtype,
			Shape:  shape,
			Offset: h.DataOffsets[0],
			Size:   h.DataOffsets[1] - h.DataOffsets[0],
		}
		if want := int64(shape.NumElements() * dtype.Size()); m.Size != want {
			return nil, nil, &ValidationError{
				Kind:    ErrOutOfBounds,
				Tensor:  name,
				Details: fmt.Sprintf("shape %v needs %d bytes, offsets span %d", shape, want, m.Size),
			}
		}
		metas = append(metas, m)
	}
	return metas, metadata, nil
}

func decodeTensor(m TensorMeta, data []byte) (*tensor.RawTensor, error) {
	raw, err := tensor.NewRaw(m.Shape, m.DType, tensor.CPU)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(data)
	switch m.DType {
	case tensor.Float64:
		err = binary.Read(r, binary.LittleEndian, raw.AsFloat64())
	case tensor.Int64:
		err = binary.Read(r, binary.LittleEndian, raw.AsInt64())
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}
