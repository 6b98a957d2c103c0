// Package optim provides the gradient-based parameter updates used during
// training: an Adam optimizer over explicit value/gradient pairs and a
// step-decay learning rate scheduler.
package optim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Param is a named trainable parameter. Value and Grad share the same shape;
// the owner accumulates into Grad during its backward pass and the optimizer
// consumes it.
type Param struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

// NewParam allocates a zero-valued parameter with a matching gradient buffer
func NewParam(name string, rows, cols int) *Param {
	return &Param{
		Name:  name,
		Value: mat.NewDense(rows, cols, nil),
		Grad:  mat.NewDense(rows, cols, nil),
	}
}

// ZeroGrad clears the accumulated gradient
func (p *Param) ZeroGrad() {
	p.Grad.Zero()
}

// Optimizer updates parameters from their accumulated gradients
type Optimizer interface {
	Step()
	ZeroGrad()
	LearningRate() float64
	SetLearningRate(lr float64)
}

// AdamConfig contains the Adam hyperparameters
type AdamConfig struct {
	LearningRate float64 `json:"learning_rate"` // Step size
	Beta1        float64 `json:"beta1"`         // First-moment decay
	Beta2        float64 `json:"beta2"`         // Second-moment decay
	Epsilon      float64 `json:"epsilon"`       // Denominator stabilizer
}

// DefaultAdamConfig returns the standard Adam hyperparameters with the
// training default step size
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{
		LearningRate: 0.01,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Validate checks hyperparameter ranges
func (c AdamConfig) Validate() error {
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %f", c.LearningRate)
	}
	if c.Beta1 < 0 || c.Beta1 >= 1 {
		return fmt.Errorf("beta1 must be in [0, 1), got %f", c.Beta1)
	}
	if c.Beta2 < 0 || c.Beta2 >= 1 {
		return fmt.Errorf("beta2 must be in [0, 1), got %f", c.Beta2)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %f", c.Epsilon)
	}
	return nil
}

// Adam implements the Adam optimizer with bias-corrected first and second
// moment estimates, one moment buffer pair per parameter.
type Adam struct {
	params []*Param
	config AdamConfig

	m [][]float64 // first moments, parallel to each param's backing data
	v [][]float64 // second moments
	t int         // update count for bias correction
}

// NewAdam creates an Adam optimizer over the given parameters
func NewAdam(params []*Param, config AdamConfig) (*Adam, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Adam config: %w", err)
	}

	m := make([][]float64, len(params))
	v := make([][]float64, len(params))
	for i, p := range params {
		size := len(p.Value.RawMatrix().Data)
		m[i] = make([]float64, size)
		v[i] = make([]float64, size)
	}

	return &Adam{params: params, config: config, m: m, v: v}, nil
}

// Step applies one Adam update to every parameter in place
func (a *Adam) Step() {
	a.t++
	correction1 := 1 - math.Pow(a.config.Beta1, float64(a.t))
	correction2 := 1 - math.Pow(a.config.Beta2, float64(a.t))

	for i, p := range a.params {
		value := p.Value.RawMatrix().Data
		grad := p.Grad.RawMatrix().Data
		for j := range value {
			g := grad[j]
			a.m[i][j] = a.config.Beta1*a.m[i][j] + (1-a.config.Beta1)*g
			a.v[i][j] = a.config.Beta2*a.v[i][j] + (1-a.config.Beta2)*g*g
			mHat := a.m[i][j] / correction1
			vHat := a.v[i][j] / correction2
			value[j] -= a.config.LearningRate * mHat / (math.Sqrt(vHat) + a.config.Epsilon)
		}
	}
}

// ZeroGrad clears every parameter's accumulated gradient
func (a *Adam) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

// LearningRate returns the current step size
func (a *Adam) LearningRate() float64 {
	return a.config.LearningRate
}

// SetLearningRate changes the step size, used by schedulers
func (a *Adam) SetLearningRate(lr float64) {
	a.config.LearningRate = lr
}
