package build

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/deploysync/selectcore/internal/cache"
	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/internal/sat"
)

// CommandKey scopes a command cache entry to (name, interface), the
// pair the command cache is keyed by. String concatenation with a NUL
// separator is enough since neither component can contain one. It is
// exported so the branch heuristic can look up the same entries this
// package populates.
func CommandKey(name string, iface model.Interface) string {
	return name + "\x00" + string(iface)
}

// Builder walks the requirement graph reachable from a root
// requirement, consulting provider for candidates, and emits clauses
// into engine as it goes.
type Builder struct {
	engine   *sat.Engine
	provider model.Provider
	ifaces   *cache.Interfaces
	commands *cache.Commands
	logger   logrus.FieldLogger

	diagnostic    bool
	ifaceAux      map[model.Interface]sat.Lit
	machineGroups map[string]sat.Lit
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger overrides the builder's logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(b *Builder) { b.logger = logger }
}

// Diagnostic puts the builder into closest-match mode: every interface
// it builds gets an extra dummy implementation appended, guaranteeing a
// satisfiable problem.
func Diagnostic() Option {
	return func(b *Builder) { b.diagnostic = true }
}

// New returns a Builder ready to walk a requirement graph into engine,
// backed by the given caches and provider.
func New(engine *sat.Engine, provider model.Provider, ifaces *cache.Interfaces, commands *cache.Commands, opts ...Option) *Builder {
	b := &Builder{
		engine:        engine,
		provider:      provider,
		ifaces:        ifaces,
		commands:      commands,
		logger:        logrus.StandardLogger(),
		ifaceAux:      make(map[model.Interface]sat.Lit),
		machineGroups: make(map[string]sat.Lit),
	}

	for _, opt := range opts {
		opt(b)
	}

	m64 := b.engine.AddVariable(MachineGroupElem{Name: "m64"})
	mDef := b.engine.AddVariable(MachineGroupElem{Name: "mDef"})
	b.machineGroups["m64"] = m64
	b.machineGroups["mDef"] = mDef
	b.engine.AtMostOne([]sat.Lit{m64, mDef})

	return b
}

// Build walks root and everything reachable from it, then runs the
// replacement-conflict post-pass and asserts that the root's own
// candidate set is non-empty.
func (b *Builder) Build(root Requirement) error {
	var vars []sat.Lit
	switch r := root.(type) {
	case ReqIface:
		e, err := b.BuildInterface(r.Iface)
		if err != nil {
			return errors.Wrapf(err, "solving for interface %s", r.Iface)
		}
		vars = e.Vars
	case ReqCommand:
		e, err := b.BuildCommand(r.Name, r.Iface)
		if err != nil {
			return errors.Wrapf(err, "solving for interface %s", r.Iface)
		}
		vars = e.Vars
	default:
		return errors.Errorf("build: unrecognised requirement type %T", root)
	}

	b.engine.AtLeastOne(vars, fmt.Sprintf("need a candidate for %s", root))
	return b.postPassReplacements()
}

// BuildInterface returns the (possibly cached) candidate entry for
// iface, populating it and recursing into its dependency graph the
// first time iface is seen.
func (b *Builder) BuildInterface(iface model.Interface) (*cache.ImplEntry, error) {
	if e, ok := b.ifaces.Lookup(iface); ok {
		return e, nil
	}

	e := b.ifaces.Start(iface)
	defer b.ifaces.Finish(e)

	replacement, impls := b.provider.GetImplementations(iface)
	e.Replacement = replacement

	if b.diagnostic {
		impls = append(impls, model.NewDummyImplementation())
	}

	compiled := make(map[string]bool)
	for _, impl := range impls {
		if _, ok := impl.Mode.(model.RequiresCompilation); ok {
			compiled[impl.ID] = true
		}
	}

	kept := make([]*model.Implementation, 0, len(impls))
	for _, impl := range impls {
		if _, ok := impl.Mode.(model.Immediate); ok && compiled[impl.ID] {
			continue
		}
		kept = append(kept, impl)
	}

	vars := make([]sat.Lit, len(kept))
	for i, impl := range kept {
		vars[i] = b.engine.AddVariable(ImplElem{Impl: impl})
	}

	e.Impls = kept
	e.Vars = vars
	e.Handle = b.engine.AtMostOne(vars)

	var compileEntry *cache.CommandEntry
	startCompileEntry := func() *cache.CommandEntry {
		if compileEntry == nil {
			compileEntry = b.commands.Start(CommandKey("compile", iface))
			compileEntry.Name = "compile"
			compileEntry.Iface = iface
		}
		return compileEntry
	}

	for i, impl := range kept {
		implVar := vars[i]

		if rc, ok := impl.Mode.(model.RequiresCompilation); ok {
			source := rc.Source()
			sourceVar := b.engine.AddVariable(ImplElem{Impl: source})
			b.engine.Implies(implVar, []sat.Lit{sourceVar},
				fmt.Sprintf("%s requires its source implementation", impl.ID))

			if compileCmd, ok := source.Commands["compile"]; ok {
				compileVar := b.engine.AddVariable(CommandElem{Command: compileCmd, Impl: source})
				ce := startCompileEntry()
				ce.Impls = append(ce.Impls, source)
				ce.Cmds = append(ce.Cmds, compileCmd)
				ce.Vars = append(ce.Vars, compileVar)

				b.engine.Implies(sourceVar, []sat.Lit{compileVar},
					fmt.Sprintf("%s requires its compile command", source.ID))
				if err := b.processBindings(compileVar, compileCmd.Bindings, iface); err != nil {
					return nil, err
				}
				if err := b.processDependencies(compileVar, CommandElem{Command: compileCmd, Impl: source}, compileCmd.Dependencies); err != nil {
					return nil, err
				}
			}
			continue
		}

		if impl.Machine != nil {
			groupVar := b.machineGroupVar(classifyMachine(*impl.Machine))
			b.engine.Implies(implVar, []sat.Lit{groupVar},
				fmt.Sprintf("%s is a %s implementation", impl.ID, *impl.Machine))
		}

		if err := b.processBindings(implVar, impl.Bindings, iface); err != nil {
			return nil, err
		}
		if err := b.processDependencies(implVar, ImplElem{Impl: impl}, impl.Dependencies); err != nil {
			return nil, err
		}
	}

	if compileEntry != nil {
		compileEntry.Handle = b.engine.AtMostOne(compileEntry.Vars)
		b.commands.Finish(compileEntry)
	}

	return e, nil
}

// BuildCommand returns the (possibly cached) candidate entry for
// (name, iface), first building iface's own candidates if needed.
func (b *Builder) BuildCommand(name string, iface model.Interface) (*cache.CommandEntry, error) {
	key := CommandKey(name, iface)
	if e, ok := b.commands.Lookup(key); ok {
		return e, nil
	}

	e := b.commands.Start(key)
	defer b.commands.Finish(e)
	e.Name = name
	e.Iface = iface

	implEntry, err := b.BuildInterface(iface)
	if err != nil {
		return nil, err
	}

	var owners []sat.Lit
	for i, impl := range implEntry.Impls {
		var cmd *model.Command
		switch {
		case impl.IsDummy():
			cmd = model.DummyCommand(name)
		default:
			c, ok := impl.Commands[name]
			if !ok {
				continue
			}
			cmd = c
		}
		v := b.engine.AddVariable(CommandElem{Command: cmd, Impl: impl})
		e.Impls = append(e.Impls, impl)
		e.Cmds = append(e.Cmds, cmd)
		e.Vars = append(e.Vars, v)
		owners = append(owners, implEntry.Vars[i])
	}
	e.Handle = b.engine.AtMostOne(e.Vars)

	for i, cmdVar := range e.Vars {
		implVar := owners[i]
		cmd := e.Cmds[i]
		b.engine.Implies(cmdVar, []sat.Lit{implVar},
			fmt.Sprintf("command %q requires its implementation", name))

		if err := b.processBindings(cmdVar, cmd.Bindings, iface); err != nil {
			return nil, err
		}
		if err := b.processDependencies(cmdVar, CommandElem{Command: cmd, Impl: e.Impls[i]}, cmd.Dependencies); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (b *Builder) processDependencies(userVar sat.Lit, owner VarLabel, deps []*model.Dependency) error {
	for _, dep := range deps {
		if err := b.processDependency(userVar, owner, dep); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) processDependency(userVar sat.Lit, owner VarLabel, dep *model.Dependency) error {
	if !b.provider.IsDepNeeded(dep) {
		return nil
	}

	entry, err := b.BuildInterface(dep.Target)
	if err != nil {
		return err
	}

	var pass, fail []sat.Lit
	for i, impl := range entry.Impls {
		if dep.MeetsAll(impl) {
			pass = append(pass, entry.Vars[i])
		} else {
			fail = append(fail, entry.Vars[i])
		}
	}

	if dep.Importance != model.Restricts && len(dep.RequiredCommands) > 0 {
		var negIface sat.Lit
		if dep.Importance != model.Essential {
			ifaceVar := b.interfaceAuxVar(dep.Target)
			negIface = b.engine.Neg(ifaceVar)
			// Selecting any passing candidate for dep.Target forces
			// the aux variable, so the implication below can gate on
			// "target unused, or a compatible command was chosen".
			b.engine.AtMostOne(append([]sat.Lit{negIface}, pass...))
		}

		for _, cmdName := range dep.RequiredCommands {
			cmdEntry, err := b.BuildCommand(cmdName, dep.Target)
			if err != nil {
				return err
			}
			reason := fmt.Sprintf("%s requires command %q on %s", owner, cmdName, dep.Target)

			if dep.Importance == model.Essential {
				b.engine.Implies(userVar, cmdEntry.Vars, reason)
				continue
			}

			bs := append([]sat.Lit{negIface}, cmdEntry.Vars...)
			b.engine.Implies(userVar, bs, reason)
		}
	}

	reason := fmt.Sprintf("%s requires %s to satisfy its restrictions", owner, dep.Target)
	if dep.Importance == model.Essential {
		b.engine.Implies(userVar, pass, reason)
	} else {
		b.engine.AtMostOne(append([]sat.Lit{userVar}, fail...))
	}
	return nil
}

func (b *Builder) processBindings(userVar sat.Lit, bindings []*model.Binding, sameIface model.Interface) error {
	for _, bind := range bindings {
		if bind.Command == nil {
			continue
		}
		cmdEntry, err := b.BuildCommand(*bind.Command, sameIface)
		if err != nil {
			return err
		}
		b.engine.Implies(userVar, cmdEntry.Vars,
			fmt.Sprintf("self-binding requires command %q", *bind.Command))
	}
	return nil
}

func (b *Builder) interfaceAuxVar(iface model.Interface) sat.Lit {
	if v, ok := b.ifaceAux[iface]; ok {
		return v
	}
	v := b.engine.AddVariable(InterfaceElem{Interface: iface})
	b.ifaceAux[iface] = v
	return v
}

func (b *Builder) machineGroupVar(name string) sat.Lit {
	return b.machineGroups[name]
}

// classifyMachine buckets a machine/CPU tag into the coarse 32/64-bit
// group used to keep a solution from mixing them.
func classifyMachine(machine string) string {
	switch machine {
	case "x86_64", "amd64", "ppc64", "ppc64le", "aarch64", "arm64", "s390x":
		return "m64"
	default:
		return "mDef"
	}
}

// postPassReplacements asserts, for every interface that reported a
// replacement and whose replacement was itself materialised, that at
// most one side of the pair contributes a real (non-dummy) selection.
func (b *Builder) postPassReplacements() error {
	entries := b.ifaces.All()
	for iface, e := range entries {
		if e.Replacement == nil {
			continue
		}
		if *e.Replacement == iface {
			b.logger.Warnf("interface %s declares itself as its own replacement, ignoring", iface)
			continue
		}
		other, ok := entries[*e.Replacement]
		if !ok {
			continue
		}

		var union []sat.Lit
		for i, impl := range e.Impls {
			if !impl.IsDummy() {
				union = append(union, e.Vars[i])
			}
		}
		for i, impl := range other.Impls {
			if !impl.IsDummy() {
				union = append(union, other.Vars[i])
			}
		}
		if len(union) > 1 {
			b.engine.AtMostOne(union)
		}
	}
	return nil
}
