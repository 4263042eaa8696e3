package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

/* Static instance file support for local development.
 * Lets a developer point the gateway at a bot of their own without
 * registering it with the manager service.
 */

// staticFile is the structure of the instances YAML file.
type staticFile struct {
	Instances []InstanceConfig `yaml:"instances"`
}

// LoadStatic reads and validates a static instances file.
func LoadStatic(path string) ([]InstanceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading instances file: %w", err)
	}

	var file staticFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing instances YAML: %w", err)
	}

	for _, inst := range file.Instances {
		if inst.Token == "" {
			return nil, fmt.Errorf("instance %d: token cannot be empty", inst.ID)
		}
		if err := inst.Status.Validate(); err != nil {
			return nil, fmt.Errorf("instance %d: %w", inst.ID, err)
		}
		if err := inst.Cache.Validate(); err != nil {
			return nil, fmt.Errorf("instance %d: %w", inst.ID, err)
		}
	}
	return file.Instances, nil
}
