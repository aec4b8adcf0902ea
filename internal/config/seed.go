package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/keyvault/internal/domain/model"
)

//go:embed seeds.yaml
var defaultSeeds []byte

// SeedFile is the YAML document listing the startup vault contents.
type SeedFile struct {
	Devices []SeedDevice `yaml:"devices"`
}

// SeedDevice is one vault entry in a seed file.
type SeedDevice struct {
	IP       string `yaml:"ip"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoadSeeds reads the seed set from path, or the embedded default when path
// is empty. Entries are validated so a bad address fails startup.
func LoadSeeds(path string) ([]model.Credential, error) {
	data := defaultSeeds
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
	}

	return ParseSeeds(data)
}

// ParseSeeds decodes a seed document.
func ParseSeeds(data []byte) ([]model.Credential, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	creds := make([]model.Credential, 0, len(file.Devices))
	for i, d := range file.Devices {
		cred := model.Credential{
			Address:  d.IP,
			Username: d.Username,
			Password: d.Password,
		}
		if err := cred.Validate(); err != nil {
			return nil, fmt.Errorf("seed device %d (%q): %w", i, d.IP, err)
		}
		creds = append(creds, cred)
	}
	return creds, nil
}
