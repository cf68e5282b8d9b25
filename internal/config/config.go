// Package config loads the matrix build job description and merges
// environment and flag configuration through Viper.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"

	"github.com/pelagiclab/dietmatrix/pkg/errors"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// SourceFiles names one research program's input files. Empties and
// Presence are optional.
type SourceFiles struct {
	Study     string `yaml:"study"`
	Diet      string `yaml:"diet"`
	Empties   string `yaml:"empties,omitempty"`
	Presence  string `yaml:"presence,omitempty"`
	LogColumn string `yaml:"log_column,omitempty"`
}

// PreyLengths names the optional secondary filter job: restrict a prey
// lengths table to specimens present in the final matrix.
type PreyLengths struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// Job is the on-disk description of one matrix build.
type Job struct {
	Output      string        `yaml:"output"`
	Windows     string        `yaml:"windows,omitempty"`
	Sources     []SourceFiles `yaml:"sources"`
	PreyLengths *PreyLengths  `yaml:"prey_lengths,omitempty"`
}

// LoadJob reads and validates a job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, errors.WrapIO("parse", path, err)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks the job names an output, at least one source, and a
// diet file per source.
func (j *Job) Validate() error {
	if j.Output == "" {
		return errors.NewValidationError("output", j.Output, "cannot be empty")
	}
	if len(j.Sources) == 0 {
		return errors.NewValidationError("sources", nil, "at least one source required")
	}
	for _, src := range j.Sources {
		if src.Study == "" {
			return errors.NewValidationError("study", src.Study, "cannot be empty")
		}
		if src.Diet == "" {
			return errors.NewValidationError("diet", src.Diet, "source "+src.Study+" requires a diet file")
		}
	}
	if j.PreyLengths != nil && (j.PreyLengths.Input == "" || j.PreyLengths.Output == "") {
		return errors.NewValidationError("prey_lengths", nil, "requires both input and output")
	}
	return nil
}
