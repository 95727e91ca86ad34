package pipeline

// Pipeline represents a sequence of assembly stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Default returns the stages that assemble a Checker from a configuration.
func Default() *Pipeline {
	return New(
		ConfigLoader{},
		RuntimeLoader{},
		StubLoader{},
		ProtoLoader{},
		GoPackageLoader{},
		CheckerBuilder{},
	)
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on errors: a broken source should not hide problems in
		// the others, and the Checker is built from whatever loaded.
	}
	return ctx
}
