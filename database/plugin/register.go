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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

// PluginOption describes a single tunable exposed by a plugin. Dest must be a
// pointer matching Type.
type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

type PluginEntry struct {
	NewFromOptionsFunc func() Plugin
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var pluginEntries []PluginEntry

// Register adds a plugin to the registry. It is meant to be called from init()
func Register(pluginEntry PluginEntry) {
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns the registered plugins of the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	ret := []PluginEntry{}
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	return ret
}

// GetPlugin returns a new instance of the named plugin, or nil if it is not registered
func GetPlugin(pluginType PluginType, name string) Plugin {
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == name {
			return p.NewFromOptionsFunc()
		}
	}
	return nil
}

// flagName returns the command line flag for a plugin option, e.g. "blob-badger-data-dir"
func (p *PluginEntry) flagName(opt PluginOption) string {
	return fmt.Sprintf(
		"%s-%s-%s",
		PluginTypeName(p.Type),
		p.Name,
		opt.Name,
	)
}

// envName returns the environment variable for a plugin option, e.g. "VAULT_BLOB_BADGER_DATA_DIR"
func (p *PluginEntry) envName(opt PluginOption) string {
	return strings.ToUpper(
		strings.ReplaceAll(
			"vault_"+p.flagName(opt),
			"-",
			"_",
		),
	)
}

// PopulateCmdlineOptions adds a flag for every registered plugin option
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			name := p.flagName(opt)
			switch opt.Type {
			case PluginOptionTypeString:
				dest, ok := opt.Dest.(*string)
				if !ok {
					return fmt.Errorf("invalid destination for option %s", name)
				}
				def, _ := opt.DefaultValue.(string)
				fs.StringVar(dest, name, def, opt.Description)
			case PluginOptionTypeBool:
				dest, ok := opt.Dest.(*bool)
				if !ok {
					return fmt.Errorf("invalid destination for option %s", name)
				}
				def, _ := opt.DefaultValue.(bool)
				fs.BoolVar(dest, name, def, opt.Description)
			case PluginOptionTypeInt:
				dest, ok := opt.Dest.(*int)
				if !ok {
					return fmt.Errorf("invalid destination for option %s", name)
				}
				def, _ := opt.DefaultValue.(int)
				fs.IntVar(dest, name, def, opt.Description)
			case PluginOptionTypeUint:
				dest, ok := opt.Dest.(*uint64)
				if !ok {
					return fmt.Errorf("invalid destination for option %s", name)
				}
				def, _ := opt.DefaultValue.(uint64)
				fs.Uint64Var(dest, name, def, opt.Description)
			default:
				return fmt.Errorf("unknown plugin option type %d for option %s", opt.Type, name)
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin sections from the config file. The map is
// keyed by plugin type name, then plugin name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for _, p := range pluginEntries {
		typeConfig, ok := pluginConfig[PluginTypeName(p.Type)]
		if !ok {
			continue
		}
		optValues, ok := typeConfig[p.Name]
		if !ok {
			continue
		}
		for _, opt := range p.Options {
			val, ok := optValues[opt.Name]
			if !ok {
				continue
			}
			// YAML decodes unsigned values as int
			if opt.Type == PluginOptionTypeUint {
				if tmp, ok := val.(int); ok {
					if tmp < 0 {
						return fmt.Errorf("invalid value for option %s: negative int", opt.Name)
					}
					val = uint64(tmp)
				}
			}
			if err := assignOption(opt, val); err != nil {
				return fmt.Errorf("plugin %s: %w", p.Name, err)
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options from environment variables
func ProcessEnvVars() error {
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			envVal, ok := os.LookupEnv(p.envName(opt))
			if !ok {
				continue
			}
			var val any
			var err error
			switch opt.Type {
			case PluginOptionTypeString:
				val = envVal
			case PluginOptionTypeBool:
				val, err = strconv.ParseBool(envVal)
			case PluginOptionTypeInt:
				val, err = strconv.Atoi(envVal)
			case PluginOptionTypeUint:
				val, err = strconv.ParseUint(envVal, 10, 64)
			default:
				err = fmt.Errorf("unknown plugin option type %d", opt.Type)
			}
			if err != nil {
				return fmt.Errorf("environment variable %s: %w", p.envName(opt), err)
			}
			if err := assignOption(opt, val); err != nil {
				return err
			}
		}
	}
	return nil
}
