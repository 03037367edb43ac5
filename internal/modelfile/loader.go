package modelfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/flowforge/create"
	"github.com/vk/flowforge/internal/ctxlog"
	"github.com/vk/flowforge/model"
	"github.com/vk/flowforge/session"
	"github.com/vk/flowforge/store"
	"github.com/vk/flowforge/tree"
)

// Loader parses model description files and drives the create surface.
type Loader struct{}

// NewLoader creates a new model description loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile reads one .hcl file from disk and builds its model.
func (l *Loader) LoadFile(ctx context.Context, path string) (*store.Store, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model description: %w", err)
	}
	return l.Load(ctx, src, filepath.Base(path))
}

// Load parses HCL source and builds the model it describes. The model name
// comes from the model block, or from the filename when the block is absent.
func (l *Loader) Load(ctx context.Context, src []byte, filename string) (*store.Store, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	if root.Model != nil {
		name = root.Model.Name
	}

	s := store.New(name)
	reg := session.New()
	if err := reg.Declare(ctx, s); err != nil {
		return nil, err
	}

	b := &builder{c: create.New(s, reg), reg: reg}
	if err := b.apply(ctx, &root); err != nil {
		return nil, err
	}
	logger.Debug("Model description applied.", "file", filename, "elements", s.Count())
	return s, nil
}

// builder holds the construction state while one file is applied.
type builder struct {
	c   *create.Creator
	reg *session.Registry
}

// apply walks the decoded blocks in declaration-order groups so that
// owners and referenced types always exist before their users.
func (b *builder) apply(ctx context.Context, root *fileRoot) error {
	for _, p := range root.Packages {
		owner, err := b.owner(p.Owner)
		if err != nil {
			return fmt.Errorf("package %q: %w", p.Name, err)
		}
		if _, err := b.c.Package(ctx, owner, p.Name, unitOpts(p.Unit)...); err != nil {
			return fmt.Errorf("package %q: %w", p.Name, err)
		}
	}
	for _, t := range root.Types {
		if err := b.applyType(ctx, t); err != nil {
			return fmt.Errorf("type %q: %w", t.Name, err)
		}
	}
	for _, e := range root.Enums {
		owner, err := b.owner(e.Owner)
		if err != nil {
			return fmt.Errorf("enumeration %q: %w", e.Name, err)
		}
		if _, err := b.c.Enumeration(ctx, owner, e.Name, e.Values, unitOpts(e.Unit)...); err != nil {
			return fmt.Errorf("enumeration %q: %w", e.Name, err)
		}
	}
	for _, k := range root.Constants {
		if err := b.applyConstant(ctx, k); err != nil {
			return fmt.Errorf("constant %q: %w", k.Name, err)
		}
	}
	for _, sn := range root.Sensors {
		owner, err := b.owner(sn.Owner)
		if err != nil {
			return fmt.Errorf("sensor %q: %w", sn.Name, err)
		}
		typ, err := tree.Name(sn.Type)
		if err != nil {
			return fmt.Errorf("sensor %q: %w", sn.Name, err)
		}
		if _, err := b.c.Sensor(ctx, owner, sn.Name, typ, unitOpts(sn.Unit)...); err != nil {
			return fmt.Errorf("sensor %q: %w", sn.Name, err)
		}
	}
	for _, op := range root.Operators {
		if err := b.applyOperator(ctx, op); err != nil {
			return fmt.Errorf("operator %q: %w", op.Name, err)
		}
	}
	return nil
}

func (b *builder) applyType(ctx context.Context, t *typeBlock) error {
	owner, err := b.owner(t.Owner)
	if err != nil {
		return err
	}
	if (t.Alias == "") == (len(t.Fields) == 0) {
		return errors.New("needs either an alias or field blocks")
	}

	var def any
	if t.Alias != "" {
		if def, err = tree.Name(t.Alias); err != nil {
			return err
		}
	} else {
		fields := make([]tree.TypeField, 0, len(t.Fields))
		for _, f := range t.Fields {
			ft, err := tree.Name(f.Type)
			if err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
			fields = append(fields, tree.TypeField{Name: f.Name, Type: ft})
		}
		if def, err = tree.Structure(fields...); err != nil {
			return err
		}
	}

	opts := unitOpts(t.Unit)
	if t.Imported {
		opts = append(opts, create.Imported())
	}
	_, err = b.c.NamedType(ctx, owner, t.Name, def, opts...)
	return err
}

func (b *builder) applyConstant(ctx context.Context, k *constantBlock) error {
	owner, err := b.owner(k.Owner)
	if err != nil {
		return err
	}
	typ, err := tree.Name(k.Type)
	if err != nil {
		return err
	}
	value, err := tree.ParseText(k.Value)
	if err != nil {
		return err
	}
	_, err = b.c.Constant(ctx, owner, k.Name, typ, value, unitOpts(k.Unit)...)
	return err
}

func (b *builder) applyOperator(ctx context.Context, o *operatorBlock) error {
	owner, err := b.owner(o.Owner)
	if err != nil {
		return err
	}

	opts := unitOpts(o.Unit)
	if o.Textual {
		opts = append(opts, create.Textual())
	}
	if o.Imported {
		opts = append(opts, create.Imported())
	}
	op, err := b.c.Operator(ctx, owner, o.Name, opts...)
	if err != nil {
		return err
	}

	// Variable identities by name for equation left sides.
	vars := map[string]model.ID{}
	add := func(blocks []*varBlock, addFn func(context.Context, model.ID, ...create.VarSpec) ([]model.ID, error)) error {
		if len(blocks) == 0 {
			return nil
		}
		specs, err := varSpecs(blocks)
		if err != nil {
			return err
		}
		ids, err := addFn(ctx, op, specs...)
		if err != nil {
			return err
		}
		for i, blk := range blocks {
			vars[blk.Name] = ids[i]
		}
		return nil
	}
	if err := add(o.Inputs, b.c.AddInputs); err != nil {
		return err
	}
	if err := add(o.Outputs, b.c.AddOutputs); err != nil {
		return err
	}
	if err := add(o.Locals, b.c.AddLocals); err != nil {
		return err
	}
	if len(o.Signals) > 0 {
		names := make([]string, len(o.Signals))
		for i, sg := range o.Signals {
			names[i] = sg.Name
		}
		if _, err := b.c.AddSignals(ctx, op, names...); err != nil {
			return err
		}
	}

	if len(o.Equations) == 0 {
		return nil
	}
	diagram, err := b.c.AddNetDiagram(ctx, op, "main")
	if err != nil {
		return err
	}
	for _, eq := range o.Equations {
		lefts := make([]any, 0, len(eq.Define))
		for _, name := range eq.Define {
			if name == create.Terminator {
				lefts = append(lefts, create.Terminator)
				continue
			}
			id, ok := vars[name]
			if !ok {
				return fmt.Errorf("equation defines unknown variable %q", name)
			}
			lefts = append(lefts, id)
		}
		right, err := tree.ParseText(eq.Expr)
		if err != nil {
			return err
		}
		if _, err := b.c.AddEquation(ctx, op, diagram, lefts, right); err != nil {
			return err
		}
	}
	_, err = b.c.AddMissingEdges(ctx, diagram)
	return err
}

// owner resolves the optional package attribute, defaulting to the model
// root.
func (b *builder) owner(path string) (model.ID, error) {
	if path == "" {
		return b.c.Store().Root(), nil
	}
	return b.reg.Lookup(path)
}

func unitOpts(unit string) []create.Option {
	if unit == "" {
		return nil
	}
	return []create.Option{create.InUnit(unit)}
}

func varSpecs(blocks []*varBlock) ([]create.VarSpec, error) {
	specs := make([]create.VarSpec, 0, len(blocks))
	for _, blk := range blocks {
		typ, err := tree.Name(blk.Type)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", blk.Name, err)
		}
		specs = append(specs, create.VarSpec{Name: blk.Name, Type: typ})
	}
	return specs, nil
}
