package main

import "fmt"

// runLearn implements -m learn. Weight-learning over rule costs is out
// of scope (see pkg/ilp.WeightedCost, the hook a training subsystem
// would populate); the mode is accepted so CLI tests can exercise the
// -m flag's full vocabulary, but it always fails fast rather than
// silently doing nothing.
func runLearn(o options, paths []string) error {
	return fmt.Errorf("learn mode: weight-learning is out of scope; see pkg/ilp.WeightedCost")
}
