package layers

// Activation selects the nonlinearity applied after a dense layer.
type Activation int

const (
	// ActivationLinear applies no nonlinearity.
	ActivationLinear Activation = iota
	// ActivationReLU applies max(0, x).
	ActivationReLU
)

func (a Activation) String() string {
	switch a {
	case ActivationReLU:
		return "relu"
	default:
		return "linear"
	}
}

func activate(x float32, a Activation) float32 {
	if a == ActivationReLU && x < 0 {
		return 0
	}
	return x
}

// activateDerivative returns d(activation)/dx evaluated at the pre-activation x.
func activateDerivative(x float32, a Activation) float32 {
	if a == ActivationReLU && x < 0 {
		return 0
	}
	return 1
}
