package flow

import "fmt"

type Flow interface {
	Name() string
	Steps() []*Step
}

type Pipeline struct {
	name  string
	steps []*Step
}

func NewPipeline(name string, steps ...*Step) *Pipeline {
	return &Pipeline{name: name, steps: steps}
}

func (p *Pipeline) Name() string {
	return p.name
}

func (p *Pipeline) Steps() []*Step {
	return p.steps
}

type Engine struct {
	flows map[string]Flow
}

func NewEngine(flows ...Flow) *Engine {
	m := map[string]Flow{}
	for _, f := range flows {
		m[f.Name()] = f
	}
	return &Engine{flows: m}
}

// Run executes the named flow's steps in order and stops at the first
// failure. The step error stays reachable through errors.Is and errors.As.
func (e *Engine) Run(flowName string, ctx *Context) error {
	f, exists := e.flows[flowName]
	if !exists {
		return fmt.Errorf("unsupported flow: %v", flowName)
	}
	for _, step := range f.Steps() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s step skipped, pipeline cancelled: %w", step.Name, err)
		}
		if err := step.Execute(ctx); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}

type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed, pipeline errored: %s", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
