// Package cache holds the two candidate tables the problem builder
// consults while it walks the requirement graph: one for the
// implementations on offer for an interface, one for the commands
// exposed by them. Both answer the same question a namespace-scoped,
// TTL-expiring, concurrently populated snapshot table answers for
// CSVs — "have we already resolved this key, and if not, who is
// populating it right now" — adapted down to a single build's worth
// of lazy, cycle-safe memoization.
package cache

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/internal/sat"
)

// ErrCycle describes a requirement graph looping back on an interface
// that is still being built. Nothing in this package returns it:
// Interfaces.Lookup reports such a loop by handing back the half-built
// entry with ok == true, which is precisely what the
// lookup/start/finish pattern is for, and that entry is safe to hand out.
var ErrCycle = errors.New("cache: interface is already being resolved")

// ImplEntry is what the interface cache stores per interface: the
// engine variables for every candidate implementation, in the
// provider's preference order, governed by an at-most-one clause, plus
// the replacement interface (if any) the provider reported.
type ImplEntry struct {
	Interface   model.Interface
	Replacement *model.Interface
	Impls       []*model.Implementation
	Vars        []sat.Lit
	Handle      *sat.ClauseHandle

	building bool
}

// CommandEntry is the command-cache equivalent: one variable per
// implementation that exposes a command of the given name, governed by
// an at-most-one clause (only one implementation's copy of a named
// command can be selected).
type CommandEntry struct {
	Name   string
	Iface  model.Interface
	Impls  []*model.Implementation
	Cmds   []*model.Command
	Vars   []sat.Lit
	Handle *sat.ClauseHandle

	building bool
}

// Interfaces memoizes ImplEntry by interface. It is not safe for
// concurrent use across goroutines building different parts of the
// same problem; the driver builds one problem at a time on one
// goroutine, a single-writer population discipline.
type Interfaces struct {
	mu      sync.Mutex
	entries map[model.Interface]*ImplEntry
	logger  logrus.FieldLogger
}

// NewInterfaces returns an empty interface cache.
func NewInterfaces(logger logrus.FieldLogger) *Interfaces {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Interfaces{
		entries: make(map[model.Interface]*ImplEntry),
		logger:  logger,
	}
}

// Lookup returns the cached entry for iface if one is already fully or
// partially built. ok is false only the first time iface is seen; in
// that case the caller must call Start, populate the returned entry's
// fields, and call Finish before any other lookup of the same
// interface is meaningful.
func (c *Interfaces) Lookup(iface model.Interface) (*ImplEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[iface]
	return e, ok
}

// Start registers a half-built entry for iface and returns it. Calling
// Start twice for the same interface is a programmer error: callers
// must always check Lookup first. The half-built entry lets a
// dependency cycle back to iface observe "already in progress" instead
// of recursing forever, exactly the role snapshotHeader plays in the
// teacher's cache before its snapshot field is populated.
func (c *Interfaces) Start(iface model.Interface) *ImplEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &ImplEntry{Interface: iface, building: true}
	c.entries[iface] = e
	return e
}

// All returns a shallow copy of every entry registered so far,
// including half-built ones. The problem builder uses this for the
// replacement-conflict post-pass, which must run after every interface
// reachable from the root has been walked but before the caches are
// frozen for solving.
func (c *Interfaces) All() map[model.Interface]*ImplEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[model.Interface]*ImplEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Building reports whether iface's entry has been Started but not yet
// Finished — the cycle-detection signal for the problem builder.
func (e *ImplEntry) Building() bool {
	return e.building
}

// Finish marks e as fully populated.
func (c *Interfaces) Finish(e *ImplEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.building = false
}

// Commands memoizes CommandEntry by a string key, the same
// lookup/start/finish shape as Interfaces. The problem builder always
// derives that key from a (command name, interface) pair, so each
// interface has its own entry per command name.
type Commands struct {
	mu      sync.Mutex
	entries map[string]*CommandEntry
}

// NewCommands returns an empty command cache.
func NewCommands() *Commands {
	return &Commands{entries: make(map[string]*CommandEntry)}
}

func (c *Commands) Lookup(name string) (*CommandEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	return e, ok
}

func (c *Commands) Start(name string) *CommandEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &CommandEntry{Name: name, building: true}
	c.entries[name] = e
	return e
}

func (e *CommandEntry) Building() bool {
	return e.building
}

func (c *Commands) Finish(e *CommandEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.building = false
}

// Snapshot is the frozen state handed to result assembly once a
// problem has been solved: every interface and command entry built
// during that solve, keyed the same way the live caches were. Freezing
// avoids handing assembly a cache that a subsequent diagnostic solve
// (with the dummy implementation added) might go on to mutate.
type Snapshot struct {
	Interfaces map[model.Interface]*ImplEntry
	Commands   map[string]*CommandEntry
}

// Freeze copies the current contents of both caches into a Snapshot.
func Freeze(ifaces *Interfaces, commands *Commands) *Snapshot {
	ifaces.mu.Lock()
	commandsSnap := make(map[string]*CommandEntry, len(commands.entries))
	ifaceSnap := make(map[model.Interface]*ImplEntry, len(ifaces.entries))
	for k, v := range ifaces.entries {
		ifaceSnap[k] = v
	}
	ifaces.mu.Unlock()

	commands.mu.Lock()
	for k, v := range commands.entries {
		commandsSnap[k] = v
	}
	commands.mu.Unlock()

	return &Snapshot{Interfaces: ifaceSnap, Commands: commandsSnap}
}
