package features

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestInitFeatureConfig(t *testing.T) {
	defer Init(&Flags{})
	cfg := &Flags{
		SkipInitialScan: true,
	}
	Init(cfg)
	c := Get()
	assert.True(t, c.SkipInitialScan)
}

func TestInitWithReset(t *testing.T) {
	defer Init(&Flags{})
	Init(&Flags{DisableBackgroundServices: true})
	require.True(t, Get().DisableBackgroundServices)

	reset := InitWithReset(&Flags{SkipInitialScan: true})
	require.True(t, Get().SkipInitialScan)
	require.False(t, Get().DisableBackgroundServices)

	reset()
	require.False(t, Get().SkipInitialScan)
}

func TestConfigureAavewatch(t *testing.T) {
	defer Init(&Flags{})
	app := cli.App{}
	set := flag.NewFlagSet("test", 0)
	set.Bool(SkipInitialScanFlag.Name, true, "test")
	set.Bool(DisableEthDatasetFlag.Name, true, "test")
	ctx := cli.NewContext(&app, set, nil)

	ConfigureAavewatch(ctx)

	c := Get()
	assert.True(t, c.SkipInitialScan)
	assert.True(t, c.DisableEthDataset)
	assert.False(t, c.DisableBackgroundServices)
}
