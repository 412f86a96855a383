package home

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed bot.updates.yaml
var changelogYAML []byte

// Release is one changelog entry.
type Release struct {
	Version string   `yaml:"version"`
	Date    string   `yaml:"date"`
	Changes []string `yaml:"changes"`
}

var changelog = mustParseChangelog(changelogYAML)

func parseChangelog(data []byte) ([]Release, error) {
	var releases []Release
	if err := yaml.Unmarshal(data, &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

func mustParseChangelog(data []byte) []Release {
	releases, err := parseChangelog(data)
	if err != nil {
		panic("home: bad changelog: " + err.Error())
	}
	return releases
}
