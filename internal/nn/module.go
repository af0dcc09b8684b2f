// Package nn implements the neural network building blocks of the model:
// parameters, dense layers, embedding tables and activations.
//
// Layers own their parameters as RawTensors and bind them to the backend
// of the input on every call, so one set of weights serves plain and
// differentiating forward passes alike.
package nn

// Module is implemented by every component that owns parameters.
type Module interface {
	// Parameters returns every parameter of the module, trainable or not,
	// in a stable order.
	Parameters() []*Parameter
}

// Collect flattens the parameters of several modules, prefixing each name
// with prefix and a dot.
func Collect(prefix string, modules ...Module) []*Parameter {
	var out []*Parameter
	for _, m := range modules {
		for _, p := range m.Parameters() {
			out = append(out, p.WithPrefix(prefix))
		}
	}
	return out
}
