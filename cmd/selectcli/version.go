package main

import (
	"github.com/blang/semver/v4"
)

func parseVersion(s string) (*semver.Version, error) {
	v, err := semver.Parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
