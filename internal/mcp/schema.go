// Package mcp provides an MCP (Model Context Protocol) server for demes.
package mcp

// ModelInput identifies a demographic model by inline YAML or file path.
// Exactly one of Model and Path must be set.
type ModelInput struct {
	Model string `json:"model,omitempty" jsonschema:"Model as inline YAML text"`
	Path  string `json:"path,omitempty" jsonschema:"Path to a model YAML file"`
}

// ValidateInput defines the input for the demes_validate tool.
type ValidateInput struct {
	ModelInput
}

// ValidateOutput defines the output for the demes_validate tool.
type ValidateOutput struct {
	Valid   bool   `json:"valid" jsonschema:"Whether the model resolved and validated"`
	Error   string `json:"error,omitempty" jsonschema:"Validation error when the model is invalid"`
	Demes   int    `json:"demes" jsonschema:"Number of demes in the model"`
	Message string `json:"message" jsonschema:"Human-readable result message"`
}

// DescribeInput defines the input for the demes_describe tool.
type DescribeInput struct {
	ModelInput
}

// DescribeOutput defines the output for the demes_describe tool.
type DescribeOutput struct {
	Description string        `json:"description" jsonschema:"Free-text description of the model"`
	TimeUnits   string        `json:"time_units" jsonschema:"Time units of the model"`
	Demes       []DemeSummary `json:"demes" jsonschema:"Per-deme summaries"`
	Pulses      int           `json:"pulses" jsonschema:"Number of pulses"`
	Migrations  int           `json:"migrations" jsonschema:"Number of asymmetric migrations"`
}

// DemeSummary provides a simplified view of a deme. Times are strings
// because a deme's start may be infinite, which JSON numbers cannot carry.
type DemeSummary struct {
	Name      string   `json:"name"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Epochs    int      `json:"epochs"`
	Ancestors []string `json:"ancestors,omitempty"`
}

// SizeInput defines the input for the demes_size tool.
type SizeInput struct {
	ModelInput
	Deme string  `json:"deme" jsonschema:"Deme name"`
	Time float64 `json:"time" jsonschema:"Backwards time to evaluate at"`
}

// SizeOutput defines the output for the demes_size tool.
type SizeOutput struct {
	Deme string  `json:"deme"`
	Time float64 `json:"time"`
	Size float64 `json:"size" jsonschema:"Population size at the given time"`
}

// ForwardInput defines the input for the demes_forward tool.
type ForwardInput struct {
	ModelInput
	Burnin float64 `json:"burnin,omitempty" jsonschema:"Burn-in length in generations (default 100)"`
}

// ForwardOutput defines the output for the demes_forward tool.
type ForwardOutput struct {
	Steps      int       `json:"steps" jsonschema:"Number of generations iterated"`
	EndTime    float64   `json:"end_time" jsonschema:"Total model length including burn-in"`
	DemeNames  []string  `json:"deme_names"`
	FinalSizes []float64 `json:"final_sizes" jsonschema:"Parental deme sizes at the last generation"`
}
