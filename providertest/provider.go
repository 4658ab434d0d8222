// Package providertest offers an in-memory model.Provider for tests
// and demonstrations, modeled after a static map-backed source
// provider — a plain map standing in for whatever backs Sources in
// production.
package providertest

import "github.com/deploysync/selectcore/internal/model"

// MapProvider serves implementations straight out of a map, in the
// slice order given, and reports every dependency as needed unless
// NeedFilter says otherwise.
type MapProvider struct {
	Impls        map[model.Interface][]*model.Implementation
	Replacements map[model.Interface]model.Interface
	NeedFilter   func(dep *model.Dependency) bool
}

var _ model.Provider = (*MapProvider)(nil)

// NewMapProvider returns an empty provider ready to be populated via
// Add.
func NewMapProvider() *MapProvider {
	return &MapProvider{
		Impls:        make(map[model.Interface][]*model.Implementation),
		Replacements: make(map[model.Interface]model.Interface),
	}
}

// Add appends impl to the candidate list for iface, in the order
// Add is called — GetImplementations preserves that order as the
// preference order the branch heuristic honours.
func (p *MapProvider) Add(iface model.Interface, impl *model.Implementation) *MapProvider {
	p.Impls[iface] = append(p.Impls[iface], impl)
	return p
}

// ReplacedBy records that iface has been superseded by replacement.
func (p *MapProvider) ReplacedBy(iface, replacement model.Interface) *MapProvider {
	p.Replacements[iface] = replacement
	return p
}

func (p *MapProvider) GetImplementations(iface model.Interface) (*model.Interface, []*model.Implementation) {
	var replacement *model.Interface
	if r, ok := p.Replacements[iface]; ok {
		replacement = &r
	}
	return replacement, p.Impls[iface]
}

func (p *MapProvider) IsDepNeeded(dep *model.Dependency) bool {
	if p.NeedFilter != nil {
		return p.NeedFilter(dep)
	}
	return true
}
