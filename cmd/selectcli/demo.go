package main

import (
	"github.com/blang/semver/v4"

	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/providertest"
)

// demoProvider returns a small, self-contained provider with a
// three-interface chain (app -> lib -> runtime) plus a "run" command on
// app, exercising enough of the model to show a non-trivial document
// without requiring a real feed source.
func demoProvider() *providertest.MapProvider {
	p := providertest.NewMapProvider()

	runtimeVersion := semver.MustParse("2.1.0")
	p.Add("https://example.org/runtime", &model.Implementation{
		ID:      "runtime-2.1.0",
		Version: &runtimeVersion,
		Mode:    model.Immediate{},
		Attrs:   map[string]string{"stability": "stable"},
	})

	libVersion := semver.MustParse("1.4.0")
	p.Add("https://example.org/lib", &model.Implementation{
		ID:      "lib-1.4.0",
		Version: &libVersion,
		Mode:    model.Immediate{},
		Attrs:   map[string]string{"stability": "stable"},
		Dependencies: []*model.Dependency{
			{Target: "https://example.org/runtime", Importance: model.Essential},
		},
	})

	appVersion := semver.MustParse("3.0.0")
	runCmd := &model.Command{
		Name: "run",
		Node: model.XMLFragment{Raw: []byte(`<command name="run" path="bin/app"></command>`)},
	}
	p.Add("https://example.org/app", &model.Implementation{
		ID:       "app-3.0.0",
		Version:  &appVersion,
		Mode:     model.Immediate{},
		Attrs:    map[string]string{"stability": "stable"},
		Commands: map[string]*model.Command{"run": runCmd},
		Dependencies: []*model.Dependency{
			{Target: "https://example.org/lib", Importance: model.Essential},
		},
	})

	return p
}
