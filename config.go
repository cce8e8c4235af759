// Copyright 2020-2021 Dolthub, Inc.
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

package fusionql

import "go.uber.org/zap"

// Config tunes an Engine. The zero value is usable; New fills defaults.
type Config struct {
	// CacheCapacity bounds the compiled-query cache.
	CacheCapacity int
	// Logger receives compile and cache events. Defaults to a no-op
	// logger.
	Logger *zap.Logger
}

// Option mutates a Config.
type Option func(*Config)

// WithCacheCapacity sets the compiled-query cache bound.
func WithCacheCapacity(n int) Option {
	return func(c *Config) { c.CacheCapacity = n }
}

// WithLogger sets the engine's structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func buildConfig(opts []Option) Config {
	var c Config
	for _, o := range opts {
		o(&c)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
