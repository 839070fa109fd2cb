package gcn

import (
	"fmt"
	"math/rand"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// hiddenLayers is the fixed depth of the hidden convolution stack.
const hiddenLayers = 4

// GCN stacks four hidden graph convolutions, each followed by batch norm,
// ReLU and dropout, with one output convolution projecting to the class
// count. Unless ReturnEmbeds is set the output is passed through
// log-softmax.
type GCN struct {
	Convs []*Conv
	BNs   []*BatchNorm
	Out   *Conv

	Dropout      float64
	ReturnEmbeds bool

	// masks combines the ReLU and dropout multipliers per hidden layer,
	// cached during a training-mode forward for the backward pass.
	masks []*mat.Dense
}

// New builds a GCN for the given dimensions. Weights start zeroed; call
// ResetParameters before training.
func New(inputDim, hiddenDim, outputDim int, dropout float64, returnEmbeds bool) *GCN {
	convs := make([]*Conv, hiddenLayers)
	bns := make([]*BatchNorm, hiddenLayers)
	in := inputDim
	for i := 0; i < hiddenLayers; i++ {
		convs[i] = NewConv(in, hiddenDim)
		bns[i] = NewBatchNorm(hiddenDim)
		in = hiddenDim
	}

	return &GCN{
		Convs:        convs,
		BNs:          bns,
		Out:          NewConv(hiddenDim, outputDim),
		Dropout:      dropout,
		ReturnEmbeds: returnEmbeds,
		masks:        make([]*mat.Dense, hiddenLayers),
	}
}

// ResetParameters reinitializes every convolution's weights and every
// batch norm's learned parameters and running statistics, discarding any
// trained state.
func (m *GCN) ResetParameters(rng *rand.Rand) {
	for _, c := range m.Convs {
		c.Reset(rng)
	}
	for _, bn := range m.BNs {
		bn.Reset()
	}
	m.Out.Reset(rng)
}

// Forward runs the full stack on the whole graph. In training mode batch
// norm uses batch statistics and dropout masks are sampled from rng,
// making the output stochastic; in evaluation mode (training=false) the
// pass is deterministic and rng may be nil.
func (m *GCN) Forward(adj *sparse.CSR, x *mat.Dense, training bool, rng *rand.Rand) *mat.Dense {
	h := x
	for i, conv := range m.Convs {
		z := conv.Forward(adj, h)
		z = m.BNs[i].Forward(z, training)
		h = m.activate(z, i, training, rng)
	}

	out := m.Out.Forward(adj, h)
	if m.ReturnEmbeds {
		return out
	}
	return LogSoftmax(out)
}

// activate applies ReLU and, in training mode, inverted dropout. The
// combined multiplier is cached so Backward can replay it.
func (m *GCN) activate(z *mat.Dense, layer int, training bool, rng *rand.Rand) *mat.Dense {
	n, d := z.Dims()
	mask := mat.NewDense(n, d, nil)
	out := mat.NewDense(n, d, nil)

	keep := 1 - m.Dropout
	for i := 0; i < n; i++ {
		zRow := z.RawRowView(i)
		mRow := mask.RawRowView(i)
		oRow := out.RawRowView(i)
		for j, v := range zRow {
			if v <= 0 {
				continue
			}
			mult := 1.0
			if training && m.Dropout > 0 {
				if rng.Float64() < m.Dropout {
					continue
				}
				mult = 1 / keep
			}
			mRow[j] = mult
			oRow[j] = v * mult
		}
	}

	if training {
		m.masks[layer] = mask
	}
	return out
}

// Backward propagates the loss gradient w.r.t. the output logits through
// the stack, filling every layer's parameter gradients. Must follow a
// training-mode Forward.
func (m *GCN) Backward(adj *sparse.CSR, dLogits *mat.Dense) {
	dH := m.Out.Backward(adj, dLogits)

	for i := hiddenLayers - 1; i >= 0; i-- {
		dH.MulElem(dH, m.masks[i])
		dH = m.BNs[i].Backward(dH)
		dH = m.Convs[i].Backward(adj, dH)
	}
}

// Params returns stable references to every trainable parameter and its
// gradient buffer, in a fixed order, for the optimizer.
func (m *GCN) Params() []*Param {
	var params []*Param
	add := func(name string, data, grad []float64) {
		params = append(params, &Param{Name: name, Data: data, Grad: grad})
	}

	for i, c := range m.Convs {
		add(convName(i, "weight"), c.W.RawMatrix().Data, c.dW.RawMatrix().Data)
		add(convName(i, "bias"), c.B, c.dB)
	}
	for i, bn := range m.BNs {
		add(convName(i, "bn.gamma"), bn.Gamma, bn.dGamma)
		add(convName(i, "bn.beta"), bn.Beta, bn.dBeta)
	}
	add("out.weight", m.Out.W.RawMatrix().Data, m.Out.dW.RawMatrix().Data)
	add("out.bias", m.Out.B, m.Out.dB)

	return params
}

// Clone returns a deep copy of the model's parameters and batch norm
// running statistics, suitable for best-model snapshotting. Gradient
// state and forward caches are not copied.
func (m *GCN) Clone() *GCN {
	clone := &GCN{
		Convs:        make([]*Conv, len(m.Convs)),
		BNs:          make([]*BatchNorm, len(m.BNs)),
		Out:          m.Out.Clone(),
		Dropout:      m.Dropout,
		ReturnEmbeds: m.ReturnEmbeds,
		masks:        make([]*mat.Dense, hiddenLayers),
	}
	for i, c := range m.Convs {
		clone.Convs[i] = c.Clone()
	}
	for i, bn := range m.BNs {
		clone.BNs[i] = bn.Clone()
	}
	return clone
}

func convName(i int, suffix string) string {
	return fmt.Sprintf("layer%d.%s", i, suffix)
}
