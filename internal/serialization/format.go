package serialization

import (
	"fmt"

	"github.com/born-ml/cfconv/internal/tensor"
)

// SafeTensors dtype identifiers.
const (
	DTypeF64 = "F64"
	DTypeI64 = "I64"
)

// metadataKey is the reserved header entry for string metadata.
const metadataKey = "__metadata__"

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// TensorMeta describes a tensor located in the data section.
type TensorMeta struct {
	Name   string
	DType  tensor.DataType
	Shape  tensor.Shape
	Offset int64
	Size   int64
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float64:
		return DTypeF64, nil
	case tensor.Int64:
		return DTypeI64, nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDType, dt)
	}
}

// dtypeFromSafeTensors converts a SafeTensors dtype string to tensor.DataType.
func dtypeFromSafeTensors(s string) (tensor.DataType, error) {
	switch s {
	case DTypeF64:
		return tensor.Float64, nil
	case DTypeI64:
		return tensor.Int64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
}
