// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// config holds the jaeger-demo settings. The yaml keys match the flag names.
type config struct {
	Service  string            `yaml:"service"`
	Agent    string            `yaml:"agent"`
	Encoding string            `yaml:"encoding"`
	LogLevel string            `yaml:"log-level"`
	Metrics  string            `yaml:"metrics"`
	Listen   string            `yaml:"listen"`
	Tags     map[string]string `yaml:"tags"`
}

func (c config) tagKeys() []string {
	keys := make([]string, 0, len(c.Tags))
	for k := range c.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseArgs parses args with fs. Values from the -config file are used for
// flags that are not set explicitly.
func parseArgs(fs *flag.FlagSet, args []string) (config, error) {
	var (
		flags      config
		configPath string
	)
	fs.StringVar(&flags.Service, "service", "", `Service name reported with every span (default "jaeger-demo")`)
	fs.StringVar(&flags.Agent, "agent", "", "Jaeger agent address as host:port")
	fs.StringVar(&flags.Encoding, "encoding", "", `Thrift encoding, "compact" or "binary" (default "compact")`)
	fs.StringVar(&flags.LogLevel, "log-level", "", `Logging level ("debug", "info", "warn", "error")`)
	fs.StringVar(&configPath, "config", "", "YAML file holding any of the settings above")
	fs.StringVar(&flags.Metrics, "metrics", "", "Address to serve Prometheus metrics on (disabled if empty)")
	fs.StringVar(&flags.Listen, "listen", "", "Address to serve a traced hello handler on (disabled if empty)")
	fs.Usage = usage

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	var cfg config
	if configPath != "" {
		var err error
		if cfg, err = loadConfig(configPath); err != nil {
			return config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "service":
			cfg.Service = flags.Service
		case "agent":
			cfg.Agent = flags.Agent
		case "encoding":
			cfg.Encoding = flags.Encoding
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "metrics":
			cfg.Metrics = flags.Metrics
		case "listen":
			cfg.Listen = flags.Listen
		}
	})
	return cfg, nil
}

func loadConfig(path string) (config, error) {
	f, err := os.Open(path)
	if err != nil {
		return config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}
