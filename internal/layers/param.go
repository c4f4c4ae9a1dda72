package layers

// Param is a trainable tensor with its accumulated gradient.
type Param struct {
	// Name identifies the parameter inside a checkpoint blob.
	Name string
	// Data is the flattened parameter tensor.
	Data []float32
	// Grad is the accumulated gradient, same shape as Data.
	Grad []float32

	velocity []float32
}

// NewParam allocates a parameter of the given size.
func NewParam(name string, size int) *Param {
	return &Param{
		Name: name,
		Data: make([]float32, size),
		Grad: make([]float32, size),
	}
}

// ZeroGrad resets the accumulated gradient.
func (p *Param) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// SGD is a stochastic gradient descent optimizer with classical momentum.
type SGD struct {
	LearningRate float32
	Momentum     float32

	params []*Param
}

// NewSGD creates an optimizer over the given parameters.
func NewSGD(params []*Param, learningRate, momentum float32) *SGD {
	return &SGD{
		LearningRate: learningRate,
		Momentum:     momentum,
		params:       params,
	}
}

// Step applies one update to all registered parameters and clears gradients.
func (o *SGD) Step() {
	for _, p := range o.params {
		if o.Momentum > 0 {
			if p.velocity == nil {
				p.velocity = make([]float32, len(p.Data))
			}
			for i := range p.Data {
				p.velocity[i] = o.Momentum*p.velocity[i] - o.LearningRate*p.Grad[i]
				p.Data[i] += p.velocity[i]
			}
		} else {
			for i := range p.Data {
				p.Data[i] -= o.LearningRate * p.Grad[i]
			}
		}
	}
	o.ZeroGrad()
}

// ZeroGrad clears the gradients of all registered parameters.
func (o *SGD) ZeroGrad() {
	for _, p := range o.params {
		p.ZeroGrad()
	}
}
