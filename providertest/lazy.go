package providertest

import (
	"sync"

	"github.com/deploysync/selectcore/internal/model"
)

// LazySource wraps build so it runs at most once no matter how many
// times the returned function is called, matching the single-shot
// evaluation model.RequiresCompilation.Source expects when the same
// reference is reached from more than one place in the requirement
// graph.
func LazySource(build func() *model.Implementation) func() *model.Implementation {
	var (
		once sync.Once
		impl *model.Implementation
	)
	return func() *model.Implementation {
		once.Do(func() { impl = build() })
		return impl
	}
}
