package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/funvibe/typeobj/internal/config"
	"github.com/funvibe/typeobj/internal/goinspect"
	"github.com/funvibe/typeobj/internal/hostclass"
	"github.com/funvibe/typeobj/internal/protostubs"
	"github.com/funvibe/typeobj/internal/stubdb"
	"github.com/funvibe/typeobj/internal/stubs"
	"github.com/funvibe/typeobj/internal/typeobject"
	"github.com/funvibe/typeobj/internal/utils"
)

func background(ctx *PipelineContext) context.Context {
	if ctx.Context == nil {
		return context.Background()
	}
	return ctx.Context
}

// ConfigLoader reads ConfigPath unless a Config was supplied. Without a
// config path it uses the defaults.
type ConfigLoader struct{}

func (ConfigLoader) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Config != nil {
		return ctx
	}
	if ctx.ConfigPath == "" {
		ctx.Config, _ = config.ParseConfig(nil, "<defaults>")
		return ctx
	}
	cfg, err := config.LoadConfig(ctx.ConfigPath)
	if err != nil {
		ctx.fail(err)
		return ctx
	}
	ctx.Config = cfg
	if cfg.Verbose {
		ctx.enableVerbose()
	}
	ctx.debugf("loaded config %s", ctx.ConfigPath)
	return ctx
}

// RuntimeLoader loads the runtime class snapshot. The registry always ends
// up non-nil.
type RuntimeLoader struct{}

func (RuntimeLoader) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Registry == nil {
		ctx.Registry = hostclass.NewRegistry()
	}
	if ctx.Config == nil || ctx.Config.Runtime == "" {
		return ctx
	}
	reg, err := hostclass.LoadSnapshot(utils.ResolvePath(ctx.Dir(), ctx.Config.Runtime))
	if err != nil {
		ctx.fail(err)
		return ctx
	}
	for _, name := range reg.Names() {
		c, _ := reg.Lookup(name)
		ctx.Registry.Add(c)
	}
	ctx.debugf("loaded %d runtime classes", reg.Len())
	return ctx
}

// StubLoader loads stub files, through the SQLite index when one is
// configured.
type StubLoader struct{}

func (StubLoader) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Config == nil || len(ctx.Config.Stubs) == 0 {
		return ctx
	}
	files, err := stubs.Glob(ctx.Dir(), ctx.Config.Stubs)
	if err != nil {
		ctx.fail(err)
		return ctx
	}

	if ctx.Config.StubIndex == "" {
		repo, err := stubs.LoadFiles(background(ctx), files, stubs.WithResolver(ctx.Resolver()))
		if err != nil {
			ctx.fail(err)
			return ctx
		}
		ctx.Sources = append(ctx.Sources, repo)
		ctx.debugf("loaded %d stub declarations from %d files", repo.Len(), len(files))
		return ctx
	}

	dbPath := utils.ResolvePath(ctx.Dir(), ctx.Config.StubIndex)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		ctx.fail(fmt.Errorf("creating stub index dir: %w", err))
		return ctx
	}
	ix, rebuilt, err := stubdb.Sync(background(ctx), dbPath, files,
		stubdb.WithResolver(ctx.Resolver()),
		stubdb.WithLogger(ctx.Logger),
		stubdb.WithVerbose(ctx.Verbose))
	if err != nil {
		ctx.fail(err)
		return ctx
	}
	ctx.Index = ix
	ctx.Sources = append(ctx.Sources, ix)
	ctx.debugf("stub index %s (rebuilt=%t)", dbPath, rebuilt)
	return ctx
}

// ProtoLoader declares the configured .proto files.
type ProtoLoader struct{}

func (ProtoLoader) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Config == nil || ctx.Config.Protos == nil {
		return ctx
	}
	dir := ctx.Dir()
	importPaths := utils.ResolvePaths(dir, ctx.Config.Protos.ImportPaths)
	if len(importPaths) == 0 {
		importPaths = []string{dir}
	}
	loader := &protostubs.Loader{ImportPaths: importPaths}
	repo, err := loader.Load(ctx.Config.Protos.Files, stubs.WithResolver(ctx.Resolver()))
	if err != nil {
		ctx.fail(err)
		return ctx
	}
	ctx.Sources = append(ctx.Sources, repo)
	ctx.debugf("loaded %d proto declarations", repo.Len())
	return ctx
}

// GoPackageLoader declares the configured Go packages.
type GoPackageLoader struct{}

func (GoPackageLoader) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Config == nil || ctx.Config.Go == nil {
		return ctx
	}
	ins := goinspect.NewInspector(utils.ResolvePath(ctx.Dir(), ctx.Config.Go.Dir))
	ins.IncludeUnexported = ctx.Config.Go.IncludeUnexported
	repo, err := ins.Load(background(ctx), ctx.Config.Go.Packages, stubs.WithResolver(ctx.Resolver()))
	if err != nil {
		ctx.fail(err)
		return ctx
	}
	ctx.Sources = append(ctx.Sources, repo)
	ctx.debugf("loaded %d Go type declarations", repo.Len())
	return ctx
}

// CheckerBuilder creates the Checker from everything loaded so far.
type CheckerBuilder struct{}

func (CheckerBuilder) Process(ctx *PipelineContext) *PipelineContext {
	opts := []typeobject.Option{
		typeobject.WithSource(typeobject.Chain(ctx.Sources...)),
		typeobject.WithLogger(ctx.Logger),
		typeobject.WithVerbose(ctx.Verbose),
	}
	if ctx.Config != nil {
		opts = append(opts,
			typeobject.WithHostVersion(ctx.Config.HostVersion),
			typeobject.WithBaseProviders(ctx.Config.BaseProviders(ctx.Resolver())...))
	}
	ctx.Checker = typeobject.NewChecker(opts...)
	ctx.debugf("checker %s ready with %d sources", ctx.Checker.ID(), len(ctx.Sources))
	return ctx
}
