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

package sqlite

import "github.com/prometheus/client_golang/prometheus"

const sqliteMetricNamePrefix = "database_metadata_"

func (d *MetadataStoreSqlite) registerMetrics() {
	openConns := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: sqliteMetricNamePrefix + "open_connections",
			Help: "Number of open sqlite connections",
		},
		func() float64 {
			sqlDb, err := d.DB().DB()
			if err != nil {
				return 0
			}
			return float64(sqlDb.Stats().OpenConnections)
		},
	)
	d.promRegistry.MustRegister(openConns)
}
