// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"os"
	"regexp"
	"testing"

	goversion "github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// regex taken from https://github.com/Masterminds/semver/tree/v3.1.1
var versionRegex = regexp.MustCompile(`^v?([0-9]+)(\.[0-9]+)?(\.[0-9]+)?` +
	`(-([0-9A-Za-z\-]+(\.[0-9A-Za-z\-]+)*))?` +
	`(\+([0-9A-Za-z\-]+(\.[0-9A-Za-z\-]+)*))?$`)

func TestVersionSemver(t *testing.T) {
	v := Version()
	assert.NotNil(t, versionRegex.FindStringSubmatch(v), "version is not semver: %s", v)

	_, err := goversion.NewSemver(v)
	assert.NoError(t, err)
}

func TestVersionMatchesYaml(t *testing.T) {
	versionYaml, err := os.ReadFile("versions.yaml")
	require.NoError(t, err, "Couldn't read versions.yaml file")

	var versionInfo struct {
		ModuleSets map[string]struct {
			Version string   `yaml:"version"`
			Modules []string `yaml:"modules"`
		} `yaml:"module-sets"`
	}
	err = yaml.Unmarshal(versionYaml, &versionInfo)
	require.NoError(t, err, "Couldn't parse version.yaml")

	set, ok := versionInfo.ModuleSets["jaeger"]
	require.True(t, ok, "missing jaeger module set")
	assert.Equal(t, set.Version, Version(), "Build version should match versions.yaml.")
}

func TestClientVersionTag(t *testing.T) {
	assert.Equal(t, "Go-"+Version(), ClientVersion())
}
