// Package protostubs turns Protocol Buffers definitions into type
// declarations.
//
// Services become structural contracts whose members are their RPC method
// names, so any type providing those methods satisfies the service. Messages
// and enums are nominal types whose attributes are their fields and values.
package protostubs

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/typeobj/internal/stubs"
)

// Loader parses .proto files.
type Loader struct {
	// ImportPaths are searched for the files and their imports. Defaults to
	// the current directory.
	ImportPaths []string

	// Accessor overrides file access, mostly for tests.
	Accessor protoparse.FileAccessor
}

// Load parses files and returns a declaration repository covering them and
// everything they import.
func (l *Loader) Load(files []string, opts ...stubs.Option) (*stubs.Repository, error) {
	if len(files) == 0 {
		return stubs.NewRepository(opts...), nil
	}
	parser := protoparse.Parser{
		ImportPaths: l.ImportPaths,
		Accessor:    l.Accessor,
	}
	if len(parser.ImportPaths) == 0 {
		parser.ImportPaths = []string{"."}
	}
	fds, err := parser.ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}
	return FromDescriptorSet(desc.ToFileDescriptorSet(fds...), opts...), nil
}

// FromDescriptorSet declares every service, message and enum in set.
func FromDescriptorSet(set *descriptorpb.FileDescriptorSet, opts ...stubs.Option) *stubs.Repository {
	repo := stubs.NewRepository(opts...)
	for _, f := range set.GetFile() {
		w := walker{repo: repo, origin: f.GetName()}
		w.file(f)
	}
	return repo
}

type walker struct {
	repo   *stubs.Repository
	origin string
}

func (w *walker) file(f *descriptorpb.FileDescriptorProto) {
	pkg := f.GetPackage()
	for _, s := range f.GetService() {
		w.service(qualify(pkg, s.GetName()), s)
	}
	for _, m := range f.GetMessageType() {
		w.message(qualify(pkg, m.GetName()), m)
	}
	for _, e := range f.GetEnumType() {
		w.enum(qualify(pkg, e.GetName()), e)
	}
}

func (w *walker) service(name string, s *descriptorpb.ServiceDescriptorProto) {
	methods := make([]string, 0, len(s.GetMethod()))
	for _, m := range s.GetMethod() {
		methods = append(methods, m.GetName())
	}
	w.repo.Add(stubs.Decl{
		Name:       name,
		Bases:      []string{"typing.Protocol"},
		Attributes: methods,
		Origin:     w.origin,
	})
}

func (w *walker) message(name string, m *descriptorpb.DescriptorProto) {
	// Synthesized map<K, V> entry types are not user-visible.
	if m.GetOptions().GetMapEntry() {
		return
	}
	var attrs []string
	for _, f := range m.GetField() {
		attrs = append(attrs, f.GetName())
	}
	for _, o := range m.GetOneofDecl() {
		attrs = append(attrs, o.GetName())
	}
	w.repo.Add(stubs.Decl{Name: name, Attributes: attrs, Origin: w.origin})

	for _, nested := range m.GetNestedType() {
		w.message(name+"."+nested.GetName(), nested)
	}
	for _, e := range m.GetEnumType() {
		w.enum(name+"."+e.GetName(), e)
	}
}

func (w *walker) enum(name string, e *descriptorpb.EnumDescriptorProto) {
	values := make([]string, 0, len(e.GetValue()))
	for _, v := range e.GetValue() {
		values = append(values, v.GetName())
	}
	w.repo.Add(stubs.Decl{Name: name, Attributes: values, Origin: w.origin})
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
