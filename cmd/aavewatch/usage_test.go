package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func TestAllFlagsExistInHelp(t *testing.T) {
	// If this test is failing, it is because you've recently added/removed a
	// flag in the aavewatch cli flags, but did not add/remove it to the usage.go
	// flag grouping (appHelpFlagGroups).

	var helpFlags []cli.Flag
	for _, group := range appHelpFlagGroups {
		helpFlags = append(helpFlags, group.Flags...)
	}

	for _, f := range appFlags {
		// Deprecated flags stay registered but hidden from help.
		if strings.Contains(f.String(), "DEPRECATED") {
			continue
		}
		assert.True(t, doesFlagExist(f, helpFlags), "Flag %s does not exist in help/usage flags.", f.Names()[0])
	}

	for _, f := range helpFlags {
		assert.True(t, doesFlagExist(f, appFlags), "Flag %s does not exist in main appFlags.", f.Names()[0])
	}
}

func doesFlagExist(flag cli.Flag, flags []cli.Flag) bool {
	for _, f := range flags {
		if f.String() == flag.String() {
			return true
		}
	}
	return false
}
