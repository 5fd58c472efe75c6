package model

type StepConfiguration struct {
	MainIntent          string   `json:"mainIntent"`
	Name                string   `json:"name"`
	OtherStarterIntents []string `json:"otherStarterIntents"`
	SecondaryIntents    []string `json:"secondaryIntents"`
}

// StoryConfiguration describes one registered story to the front-end.
type StoryConfiguration struct {
	MainIntent          string              `json:"mainIntent"`
	Name                string              `json:"name"`
	OtherStarterIntents []string            `json:"otherStarterIntents"`
	SecondaryIntents    []string            `json:"secondaryIntents"`
	Steps               []StepConfiguration `json:"steps"`
}

type ClientConfiguration struct {
	Stories []StoryConfiguration `json:"stories"`
}
