// Package assemble turns a satisfying assignment and the candidate
// caches it was solved against into a selections document: one
// selection record per interface actually reached by the solve (two
// when the chosen implementation requires compilation), each
// carrying the chosen implementation's attributes plus copies of its
// command, binding, dependency, and manifest-digest XML nodes.
package assemble

import (
	"encoding/xml"
	"sort"

	"github.com/pkg/errors"

	"github.com/deploysync/selectcore/internal/build"
	"github.com/deploysync/selectcore/internal/cache"
	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/internal/sat"
)

var strippedCommandChildren = map[string]bool{
	"requires":  true,
	"restricts": true,
	"runner":    true,
}

// Assemble builds a Selections document from snap and asn, rooted at
// root. snap must have been produced by cache.Freeze against the same
// solve that produced asn.
func Assemble(snap *cache.Snapshot, asn *sat.Assignment, root build.Requirement) (*Selections, error) {
	doc := &Selections{}
	switch r := root.(type) {
	case build.ReqIface:
		doc.Interface = string(r.Iface)
	case build.ReqCommand:
		doc.Interface = string(r.Iface)
		doc.Command = r.Name
	default:
		return nil, errors.Errorf("assemble: unrecognised root requirement %v", root)
	}

	ifaceNames := make([]string, 0, len(snap.Interfaces))
	for iface := range snap.Interfaces {
		ifaceNames = append(ifaceNames, string(iface))
	}
	sort.Strings(ifaceNames)

	for _, name := range ifaceNames {
		iface := model.Interface(name)
		entry := snap.Interfaces[iface]
		impl, _, ok := selectedImpl(entry, asn)
		if !ok {
			continue
		}

		sel, err := buildSelection(snap, asn, iface, impl)
		if err != nil {
			return nil, errors.Wrapf(err, "assembling selection for %s", iface)
		}
		doc.Selections = append(doc.Selections, sel)

		if rc, ok := impl.Mode.(model.RequiresCompilation); ok {
			source := rc.Source()
			srcSel, err := buildSourceSelection(snap, asn, iface, source)
			if err != nil {
				return nil, errors.Wrapf(err, "assembling source selection for %s", iface)
			}
			doc.Selections = append(doc.Selections, srcSel)
		}
	}

	return doc, nil
}

func selectedImpl(entry *cache.ImplEntry, asn *sat.Assignment) (*model.Implementation, int, bool) {
	if entry == nil {
		return nil, -1, false
	}
	for i, v := range entry.Vars {
		if asn.Value(v) {
			return entry.Impls[i], i, true
		}
	}
	return nil, -1, false
}

func buildSelection(snap *cache.Snapshot, asn *sat.Assignment, iface model.Interface, impl *model.Implementation) (*Selection, error) {
	sel := &Selection{Interface: string(iface)}
	sel.Attrs = implAttrs(impl, iface)

	if impl.IsDummy() {
		return sel, nil
	}

	var inner []byte
	for _, name := range selectedCommandNames(snap, asn, iface) {
		entry := snap.Commands[build.CommandKey(name, iface)]
		cmd, ok := commandForImpl(entry, asn, impl)
		if !ok {
			continue
		}
		frag, err := commandFragment(snap, asn, cmd)
		if err != nil {
			return nil, err
		}
		inner = append(inner, frag...)
	}

	for _, b := range impl.Bindings {
		inner = append(inner, b.Node.Raw...)
	}
	for _, dep := range impl.Dependencies {
		if dep.Importance == model.Restricts || !depInUse(snap, asn, dep) {
			continue
		}
		inner = append(inner, dep.Node.Raw...)
	}
	if impl.ManifestDigest != nil {
		inner = append(inner, impl.ManifestDigest.Raw...)
	}

	sel.InnerXML = inner
	return sel, nil
}

// buildSourceSelection assembles the parallel selection record a
// requires_compilation implementation forces alongside its own: the
// source implementation's attributes, with its command set narrowed to
// just "compile".
func buildSourceSelection(snap *cache.Snapshot, asn *sat.Assignment, iface model.Interface, source *model.Implementation) (*Selection, error) {
	sel := &Selection{Interface: string(iface)}
	sel.Attrs = implAttrs(source, iface)

	cmd, ok := source.Commands["compile"]
	if !ok {
		return sel, nil
	}
	frag, err := commandFragment(snap, asn, cmd)
	if err != nil {
		return nil, err
	}
	inner := append([]byte{}, frag...)
	for _, b := range source.Bindings {
		inner = append(inner, b.Node.Raw...)
	}
	for _, dep := range source.Dependencies {
		if dep.Importance == model.Restricts || !depInUse(snap, asn, dep) {
			continue
		}
		inner = append(inner, dep.Node.Raw...)
	}
	if source.ManifestDigest != nil {
		inner = append(inner, source.ManifestDigest.Raw...)
	}
	sel.InnerXML = inner
	return sel, nil
}

func commandFragment(snap *cache.Snapshot, asn *sat.Assignment, cmd *model.Command) ([]byte, error) {
	if len(cmd.Node.Raw) == 0 {
		return nil, nil
	}
	var extras [][]byte
	for _, dep := range cmd.Dependencies {
		if dep.Importance != model.Restricts && depInUse(snap, asn, dep) {
			extras = append(extras, dep.Node.Raw)
		}
	}
	return stripAndAppend(cmd.Node.Raw, strippedCommandChildren, extras...)
}

// selectedCommandNames returns, in lexicographic order, the names of
// every command entry scoped to iface whose governing at-most-one has
// a selected literal.
func selectedCommandNames(snap *cache.Snapshot, asn *sat.Assignment, iface model.Interface) []string {
	var names []string
	for _, entry := range snap.Commands {
		if entry.Iface != iface || entry.Handle == nil {
			continue
		}
		for _, v := range entry.Vars {
			if asn.Value(v) {
				names = append(names, entry.Name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

func commandForImpl(entry *cache.CommandEntry, asn *sat.Assignment, impl *model.Implementation) (*model.Command, bool) {
	if entry == nil {
		return nil, false
	}
	for i, candidate := range entry.Impls {
		if candidate == impl && asn.Value(entry.Vars[i]) {
			return entry.Cmds[i], true
		}
	}
	return nil, false
}

// depInUse reports whether dep's target interface was actually
// resolved to a selected candidate in this solve, the condition
// result assembly uses to decide whether to re-emit a dependency node.
func depInUse(snap *cache.Snapshot, asn *sat.Assignment, dep *model.Dependency) bool {
	entry, ok := snap.Interfaces[dep.Target]
	if !ok {
		return false
	}
	_, _, ok = selectedImpl(entry, asn)
	return ok
}

// implAttrs builds the attribute set a selection copies from its
// implementation, sorted for deterministic output: drop
// stability/main/self-test, drop a from-feed value that merely echoes
// the interface itself. The interface attribute itself is carried on
// Selection.Interface, not in this slice.
func implAttrs(impl *model.Implementation, iface model.Interface) []xml.Attr {
	keys := make([]string, 0, len(impl.Attrs))
	for k, v := range impl.Attrs {
		if k == "stability" || k == "main" || k == "self-test" || k == "interface" {
			continue
		}
		if k == "from-feed" && v == string(iface) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]xml.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: k}, Value: impl.Attrs[k]})
	}
	return attrs
}
