package stubdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/funvibe/typeobj/internal/stubs"
	"github.com/funvibe/typeobj/internal/typeobject"
)

func testRepo() *stubs.Repository {
	r := stubs.NewRepository()
	r.Add(stubs.Decl{Name: "io.Reader", Bases: []string{"typing.Protocol"}, Attributes: []string{"read"}})
	r.Add(stubs.Decl{Name: "io.Closer", Protocol: true, Attributes: []string{"close"}})
	r.Add(stubs.Decl{Name: "io.ReadCloser", Bases: []string{"io.Reader", "io.Closer"}})
	r.Add(stubs.Decl{Name: "io.File", Bases: []string{"io.ReadCloser"}, Attributes: []string{"name", "read", "name"}})
	r.Add(stubs.Decl{Name: "loop.A", Bases: []string{"loop.B"}})
	r.Add(stubs.Decl{Name: "loop.B", Bases: []string{"loop.A"}})
	return r
}

func openTest(t *testing.T) *Index {
	t.Helper()
	ctx := context.Background()
	ix, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	if err := ix.Import(ctx, testRepo(), "fp"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return ix
}

func keyNames(keys []typeobject.TypeKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func TestAncestorsOf(t *testing.T) {
	ix := openTest(t)
	tests := []struct {
		name string
		want []string
	}{
		{"io.File", []string{"io.File", "io.ReadCloser", "io.Closer", "io.Reader", "typing.Protocol"}},
		{"io.Closer", []string{"io.Closer", "typing.Protocol"}},
		{"io.Reader", []string{"io.Reader", "typing.Protocol"}},
		{"loop.A", []string{"loop.A", "loop.B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.AncestorsOf(typeobject.Named(tt.name))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if names := keyNames(got); !slices.Equal(names, tt.want) {
				t.Errorf("ancestors = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestUnknownType(t *testing.T) {
	ix := openTest(t)
	key := typeobject.Named("io.Missing")
	if _, err := ix.AncestorsOf(key); !errors.Is(err, typeobject.ErrUnknownType) {
		t.Errorf("AncestorsOf err = %v", err)
	}
	if _, err := ix.IsStructuralContract(key); !errors.Is(err, typeobject.ErrUnknownType) {
		t.Errorf("IsStructuralContract err = %v", err)
	}
	if _, err := ix.AllAttributeNames(key); !errors.Is(err, typeobject.ErrUnknownType) {
		t.Errorf("AllAttributeNames err = %v", err)
	}
}

func TestIsStructuralContract(t *testing.T) {
	ix := openTest(t)
	tests := map[string]bool{
		"io.Reader":     true,
		"io.Closer":     true,
		"io.ReadCloser": false,
		"io.File":       false,
	}
	for name, want := range tests {
		got, err := ix.IsStructuralContract(typeobject.Named(name))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got != want {
			t.Errorf("IsStructuralContract(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestAllAttributeNames_Deduplicated(t *testing.T) {
	ix := openTest(t)
	got, err := ix.AllAttributeNames(typeobject.Named("io.File"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []string{"name", "read"}) {
		t.Errorf("attributes = %v, want [name read]", got)
	}
}

func TestIndexMatchesRepository(t *testing.T) {
	ix := openTest(t)
	repo := testRepo()

	fromRepo := typeobject.NewChecker(typeobject.WithSource(repo))
	fromIndex := typeobject.NewChecker(typeobject.WithSource(ix))

	for _, name := range repo.Names() {
		a := fromRepo.MakeTypeObject(typeobject.Named(name))
		b := fromIndex.MakeTypeObject(typeobject.Named(name))
		if a.IsProtocol() != b.IsProtocol() {
			t.Errorf("%s: protocol %v vs %v", name, a.IsProtocol(), b.IsProtocol())
		}
		if !slices.Equal(a.ProtocolMembers(), b.ProtocolMembers()) {
			t.Errorf("%s: members %v vs %v", name, a.ProtocolMembers(), b.ProtocolMembers())
		}
		if !slices.Equal(a.AncestorNames(), b.AncestorNames()) {
			t.Errorf("%s: ancestors %v vs %v", name, a.AncestorNames(), b.AncestorNames())
		}
	}
}

func TestImportReplacesContents(t *testing.T) {
	ix := openTest(t)
	ctx := context.Background()

	small := stubs.NewRepository()
	small.Add(stubs.Decl{Name: "m.Only"})
	if err := ix.Import(ctx, small, "fp2"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	n, err := ix.Len(ctx)
	if err != nil || n != 1 {
		t.Errorf("Len = %d, %v; want 1", n, err)
	}
	fp, _ := ix.Fingerprint(ctx)
	if fp != "fp2" {
		t.Errorf("fingerprint = %q, want fp2", fp)
	}
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.yaml")
	write := func(content string) string {
		t.Helper()
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		fp, err := Fingerprint([]string{p})
		if err != nil {
			t.Fatalf("Fingerprint: %v", err)
		}
		return fp
	}

	base := write("types:\n  - name: m.T\n")
	if got := write("types:  \n  - name: m.T\n\n\n"); got != base {
		t.Errorf("trailing whitespace changed fingerprint: %s vs %s", got, base)
	}
	if got := write("types:\n  - name: m.U\n"); got == base {
		t.Error("content change kept the same fingerprint")
	}
	if _, err := Fingerprint([]string{filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSync_ReusesUnchangedIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	stubPath := filepath.Join(dir, "io.yaml")
	dbPath := filepath.Join(dir, "stubs.db")
	if err := os.WriteFile(stubPath, []byte("types:\n  - name: io.Reader\n    bases: [typing.Protocol]\n    attributes: [read]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ix, rebuilt, err := Sync(ctx, dbPath, []string{stubPath})
	if err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	if !rebuilt {
		t.Error("first Sync should build the index")
	}
	ix.Close()

	ix, rebuilt, err = Sync(ctx, dbPath, []string{stubPath})
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if rebuilt {
		t.Error("second Sync should reuse the index")
	}
	attrs, _ := ix.AllAttributeNames(typeobject.Named("io.Reader"))
	if !slices.Equal(attrs, []string{"read"}) {
		t.Errorf("attributes = %v", attrs)
	}
	ix.Close()

	if err := os.WriteFile(stubPath, []byte("types:\n  - name: io.Writer\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ix, rebuilt, err = Sync(ctx, dbPath, []string{stubPath})
	if err != nil {
		t.Fatalf("third Sync: %v", err)
	}
	defer ix.Close()
	if !rebuilt {
		t.Error("changed stubs should rebuild the index")
	}
	if _, err := ix.AncestorsOf(typeobject.Named("io.Reader")); !errors.Is(err, typeobject.ErrUnknownType) {
		t.Errorf("stale declaration survived rebuild: %v", err)
	}
}
