package optim

// StepLR decays the optimizer's learning rate by a multiplicative factor
// every stepSize epochs. A stepSize of zero disables decay entirely.
type StepLR struct {
	opt      Optimizer
	stepSize int
	gamma    float64
	epoch    int
}

// NewStepLR creates a step-decay scheduler wrapping the optimizer
func NewStepLR(opt Optimizer, stepSize int, gamma float64) *StepLR {
	return &StepLR{opt: opt, stepSize: stepSize, gamma: gamma}
}

// Step advances the epoch counter and applies the decay when the counter
// crosses a stepSize boundary. Call once per epoch after the optimizer step.
func (s *StepLR) Step() {
	s.epoch++
	if s.stepSize <= 0 {
		return
	}
	if s.epoch%s.stepSize == 0 {
		s.opt.SetLearningRate(s.opt.LearningRate() * s.gamma)
	}
}

// Epoch returns how many times Step has been called
func (s *StepLR) Epoch() int {
	return s.epoch
}
