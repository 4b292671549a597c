// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package plugin_test

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vault/database/plugin"
)

type optionTestValues struct {
	dataDir   string
	cacheSize uint64
	gc        bool
	workers   int
}

func registerOptionTestPlugin(t *testing.T) (string, *optionTestValues) {
	t.Helper()
	vals := &optionTestValues{}
	name := "opt-test-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: ".vault",
				Dest:         &vals.dataDir,
			},
			{
				Name:         "cache-size",
				Type:         plugin.PluginOptionTypeUint,
				DefaultValue: uint64(1024),
				Dest:         &vals.cacheSize,
			},
			{
				Name:         "gc",
				Type:         plugin.PluginOptionTypeBool,
				DefaultValue: true,
				Dest:         &vals.gc,
			},
			{
				Name:         "workers",
				Type:         plugin.PluginOptionTypeInt,
				DefaultValue: 2,
				Dest:         &vals.workers,
			},
		},
	})
	return name, vals
}

func TestSetPluginOption(t *testing.T) {
	name, vals := registerOptionTestPlugin(t)

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "data-dir", ""))
	assert.Empty(t, vals.dataDir)

	// Setting with wrong type should return an error
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "data-dir", 123))

	// Setting an unknown option is a no-op
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "does-not-exist", "x"))

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "cache-size", uint64(100000000)))
	assert.Equal(t, uint64(100000000), vals.cacheSize)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "cache-size", 5))
	assert.Equal(t, uint64(5), vals.cacheSize)
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "cache-size", -5))

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "gc", false))
	assert.False(t, vals.gc)

	require.Error(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, "nonexistent", "data-dir", t.TempDir()),
	)
}

func TestPluginCmdlineAndConfig(t *testing.T) {
	name, vals := registerOptionTestPlugin(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	require.NoError(t, fs.Parse([]string{"--blob-" + name + "-workers=7"}))
	assert.Equal(t, 7, vals.workers)
	assert.Equal(t, ".vault", vals.dataDir, "flag default applied")

	require.NoError(t, plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {
			name: {
				"data-dir":   "/tmp/vault-test",
				"cache-size": 2048,
			},
		},
	}))
	assert.Equal(t, "/tmp/vault-test", vals.dataDir)
	assert.Equal(t, uint64(2048), vals.cacheSize)
}

func TestStartPlugin(t *testing.T) {
	okName := "start-ok-" + t.Name()
	errName := "start-err-" + t.Name()
	testErr := errors.New("plugin failed")
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               okName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	})
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               errName,
		NewFromOptionsFunc: func() plugin.Plugin { return plugin.NewErrorPlugin(testErr) },
	})

	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, okName)
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = plugin.StartPlugin(plugin.PluginTypeMetadata, errName)
	require.ErrorIs(t, err, testErr)

	_, err = plugin.StartPlugin(plugin.PluginTypeMetadata, "missing-"+t.Name())
	require.Error(t, err)
}
