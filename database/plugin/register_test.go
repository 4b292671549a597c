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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vault/database/plugin"
)

type mockPlugin struct{}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

func pluginNames(entries []plugin.PluginEntry) []string {
	ret := make([]string, 0, len(entries))
	for _, e := range entries {
		ret = append(ret, e.Name)
	}
	return ret
}

func TestRegisterAndLookup(t *testing.T) {
	blobName := "blob-" + t.Name()
	metaName := "meta-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeBlob,
		Name:               blobName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	})
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               metaName,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
	})

	p := plugin.GetPlugin(plugin.PluginTypeBlob, blobName)
	require.NotNil(t, p)
	assert.IsType(t, &mockPlugin{}, p)

	// Lookups are scoped by plugin type
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeMetadata, blobName))
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "missing-"+t.Name()))

	assert.Contains(t, pluginNames(plugin.GetPlugins(plugin.PluginTypeBlob)), blobName)
	assert.NotContains(t, pluginNames(plugin.GetPlugins(plugin.PluginTypeBlob)), metaName)
	assert.Contains(t, pluginNames(plugin.GetPlugins(plugin.PluginTypeMetadata)), metaName)
}

func TestPluginTypeName(t *testing.T) {
	assert.Equal(t, "blob", plugin.PluginTypeName(plugin.PluginTypeBlob))
	assert.Equal(t, "metadata", plugin.PluginTypeName(plugin.PluginTypeMetadata))
	assert.Equal(t, "unknown", plugin.PluginTypeName(plugin.PluginType(99)))
}
