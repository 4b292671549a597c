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
	"io"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Plugins are constructed from the registry without arguments, so the logger
// and metrics registry they should use are provided here before StartPlugin.
var (
	pluginLogger       *slog.Logger
	pluginPromRegistry prometheus.Registerer
	pluginSharedMutex  sync.RWMutex
)

// SetLogger sets the logger handed to plugins created after this call
func SetLogger(logger *slog.Logger) {
	pluginSharedMutex.Lock()
	defer pluginSharedMutex.Unlock()
	pluginLogger = logger
}

// Logger returns the plugin logger, discarding output when none has been set
func Logger() *slog.Logger {
	pluginSharedMutex.RLock()
	defer pluginSharedMutex.RUnlock()
	if pluginLogger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return pluginLogger
}

// SetPromRegistry sets the metrics registry handed to plugins created after this call
func SetPromRegistry(registry prometheus.Registerer) {
	pluginSharedMutex.Lock()
	defer pluginSharedMutex.Unlock()
	pluginPromRegistry = registry
}

// PromRegistry returns the plugin metrics registry, which may be nil
func PromRegistry() prometheus.Registerer {
	pluginSharedMutex.RLock()
	defer pluginSharedMutex.RUnlock()
	return pluginPromRegistry
}
