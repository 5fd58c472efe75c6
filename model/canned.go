package model

// CannedStoryDefinition declares a story whose answer is a fixed list of
// replies. Definitions are read from the YAML configuration.
type CannedStoryDefinition struct {
	Intent              string   `yaml:"intent" json:"intent"`
	Name                string   `yaml:"name,omitempty" json:"name,omitempty"`
	OtherStarterIntents []string `yaml:"other_starter_intents" json:"otherStarterIntents"`
	SecondaryIntents    []string `yaml:"secondary_intents" json:"secondaryIntents"`
	Replies             []string `yaml:"replies" json:"replies"`
	Suggestions         []string `yaml:"suggestions" json:"suggestions"`
	Enabled             bool     `yaml:"enabled" json:"enabled"`
}
