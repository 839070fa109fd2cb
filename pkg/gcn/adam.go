package gcn

import "math"

// Param pairs a flat parameter buffer with its gradient buffer. The
// slices alias the model's storage, so optimizer updates are visible to
// the next forward pass.
type Param struct {
	Name string
	Data []float64
	Grad []float64
}

// Adam is the adaptive moment optimizer with the usual defaults
// (β1=0.9, β2=0.999, ε=1e-8) and bias-corrected moment estimates.
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	params []*Param
	m      [][]float64
	v      [][]float64
	t      int
}

// NewAdam creates an optimizer over the given parameters.
func NewAdam(params []*Param, lr float64) *Adam {
	m := make([][]float64, len(params))
	v := make([][]float64, len(params))
	for i, p := range params {
		m[i] = make([]float64, len(p.Data))
		v[i] = make([]float64, len(p.Data))
	}
	return &Adam{
		LR:     lr,
		Beta1:  0.9,
		Beta2:  0.999,
		Eps:    1e-8,
		params: params,
		m:      m,
		v:      v,
	}
}

// Step applies one Adam update from the current gradients.
func (a *Adam) Step() {
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))

	for i, p := range a.params {
		m, v := a.m[i], a.v[i]
		for j, g := range p.Grad {
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g
			mHat := m[j] / c1
			vHat := v[j] / c2
			p.Data[j] -= a.LR * mHat / (math.Sqrt(vHat) + a.Eps)
		}
	}
}

// ZeroGrad clears every gradient buffer.
func (a *Adam) ZeroGrad() {
	for _, p := range a.params {
		for j := range p.Grad {
			p.Grad[j] = 0
		}
	}
}
