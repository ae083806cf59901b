package flow

type Step struct {
	Name    string
	Execute func(ctx *Context) error
}

func NewStep(name string, execute func(ctx *Context) error) *Step {
	return &Step{
		Name:    name,
		Execute: execute,
	}
}
