// Package pipeline assembles a typeobject.Checker from typeobj.yaml in
// stages: configuration, runtime snapshot, stubs, protos, Go packages and
// finally the Checker itself.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/funvibe/typeobj/internal/config"
	"github.com/funvibe/typeobj/internal/hostclass"
	"github.com/funvibe/typeobj/internal/stubdb"
	"github.com/funvibe/typeobj/internal/typeobject"
	"github.com/funvibe/typeobj/internal/utils"
)

// Processor is one assembly stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// PipelineContext carries the state between stages.
type PipelineContext struct {
	Context context.Context

	// ConfigPath is the typeobj.yaml to load. When Config is already set,
	// it only anchors relative paths.
	ConfigPath string
	Config     *config.Config

	Registry *hostclass.Registry

	// Sources are consulted in order; earlier sources win.
	Sources []typeobject.AncestorSource

	Index   *stubdb.Index
	Checker *typeobject.Checker

	Logger  *log.Logger
	Verbose bool

	Errors []error
}

// NewContext creates a context for the config at configPath.
func NewContext(ctx context.Context, configPath string) *PipelineContext {
	c := &PipelineContext{
		Context:    ctx,
		ConfigPath: configPath,
		Logger:     log.New(io.Discard, "", 0),
	}
	if config.IsVerbose {
		c.enableVerbose()
	}
	return c
}

// enableVerbose turns on verbose logging, replacing a discarding logger
// with one writing to stderr.
func (c *PipelineContext) enableVerbose() {
	c.Verbose = true
	if c.Logger == nil || c.Logger.Writer() == io.Discard {
		c.Logger = log.New(os.Stderr, "", log.Ltime)
	}
}

// Dir is the directory relative paths in the config are resolved against.
func (c *PipelineContext) Dir() string { return utils.ConfigDir(c.ConfigPath) }

// Resolver maps declared names to runtime classes when the snapshot has
// them.
func (c *PipelineContext) Resolver() typeobject.KeyResolver {
	return typeobject.RegistryResolver(c.Registry)
}

func (c *PipelineContext) fail(err error) {
	c.Errors = append(c.Errors, err)
}

func (c *PipelineContext) debugf(format string, args ...any) {
	if c.Verbose && c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

// Err joins the errors of every stage.
func (c *PipelineContext) Err() error { return errors.Join(c.Errors...) }

// Close releases the stub index, if one was opened.
func (c *PipelineContext) Close() error {
	if c.Index == nil {
		return nil
	}
	err := c.Index.Close()
	c.Index = nil
	return err
}
