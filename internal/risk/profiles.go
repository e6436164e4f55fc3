package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProfile загружает профиль рисков из YAML по имени
func LoadProfile(path, name string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config struct {
		RiskProfiles map[string]Profile `yaml:"risk_profiles"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if name == "" {
		name = "moderate"
	}

	profile, ok := config.RiskProfiles[name]
	if !ok {
		return nil, fmt.Errorf("risk profile %s not found", name)
	}

	profile.ProfileName = name
	if profile.WarningRatio <= 0 {
		profile.WarningRatio = 0.8
	}
	if profile.DangerRatio <= 0 {
		profile.DangerRatio = 1.0
	}

	return &profile, nil
}
