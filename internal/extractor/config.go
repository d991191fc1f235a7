package extractor

// Weights combines the independent scorers into one score. Each scorer is
// unit-tested on its own; reweighting never touches scorer code.
type Weights struct {
	TextDensity float64 `yaml:"text_density"`
	Vocabulary  float64 `yaml:"vocabulary"`
	Structure   float64 `yaml:"structure"`
}

// Config tunes content selection.
type Config struct {
	// Strategy names a registered selection strategy, "heuristic" or
	// "readability".
	Strategy string `yaml:"strategy"`

	// MinContentLength is the text length below which the best candidate is
	// distrusted and the whole pruned body is used instead. The value is a
	// tunable policy knob, not a law; it was calibrated against the
	// regression corpus.
	MinContentLength int `yaml:"min_content_length"`

	Weights Weights `yaml:"weights"`
}

// DefaultConfig returns the tuning the regression corpus was calibrated
// against.
func DefaultConfig() Config {
	return Config{
		Strategy:         "heuristic",
		MinContentLength: 140,
		Weights: Weights{
			TextDensity: 1.0,
			Vocabulary:  150.0,
			Structure:   40.0,
		},
	}
}
