package risk

import (
	"os"
	"path/filepath"
	"testing"
)

const profilesFixture = `risk_profiles:
  conservative:
    warning_ratio: 0.7
    danger_ratio: 0.9
    enforce_position_limits: true
    graduation:
      min_trades: 50
      min_win_rate: 55.0
      min_sharpe: 1.5
      max_drawdown: 10.0
  moderate:
    warning_ratio: 0.8
    danger_ratio: 1.0
  bare: {}
`

func writeProfiles(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "risk_profiles.yaml")
	if err := os.WriteFile(path, []byte(profilesFixture), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfiles(t)

	tests := []struct {
		name        string
		profile     string
		wantName    string
		wantWarning float64
		wantDanger  float64
		wantEnforce bool
		wantErr     bool
	}{
		{
			name:        "named profile",
			profile:     "conservative",
			wantName:    "conservative",
			wantWarning: 0.7,
			wantDanger:  0.9,
			wantEnforce: true,
		},
		{
			name:        "empty name falls back to moderate",
			profile:     "",
			wantName:    "moderate",
			wantWarning: 0.8,
			wantDanger:  1.0,
		},
		{
			name:        "missing ratios get defaults",
			profile:     "bare",
			wantName:    "bare",
			wantWarning: 0.8,
			wantDanger:  1.0,
		},
		{
			name:    "unknown profile",
			profile: "reckless",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := LoadProfile(path, tt.profile)
			if tt.wantErr {
				if err == nil {
					t.Fatal("LoadProfile() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadProfile() error = %v", err)
			}
			if profile.ProfileName != tt.wantName {
				t.Errorf("ProfileName = %q, want %q", profile.ProfileName, tt.wantName)
			}
			if profile.WarningRatio != tt.wantWarning {
				t.Errorf("WarningRatio = %v, want %v", profile.WarningRatio, tt.wantWarning)
			}
			if profile.DangerRatio != tt.wantDanger {
				t.Errorf("DangerRatio = %v, want %v", profile.DangerRatio, tt.wantDanger)
			}
			if profile.EnforcePositionLimits != tt.wantEnforce {
				t.Errorf("EnforcePositionLimits = %v, want %v", profile.EnforcePositionLimits, tt.wantEnforce)
			}
		})
	}
}

func TestLoadProfileGraduation(t *testing.T) {
	path := writeProfiles(t)

	profile, err := LoadProfile(path, "conservative")
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}

	g := profile.Graduation
	if g.MinTrades != 50 {
		t.Errorf("MinTrades = %d, want 50", g.MinTrades)
	}
	if g.MinWinRate != 55.0 {
		t.Errorf("MinWinRate = %v, want 55.0", g.MinWinRate)
	}
	if g.MinSharpe != 1.5 {
		t.Errorf("MinSharpe = %v, want 1.5", g.MinSharpe)
	}
	if g.MaxDrawdown != 10.0 {
		t.Errorf("MaxDrawdown = %v, want 10.0", g.MaxDrawdown)
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"), "moderate")
	if err == nil {
		t.Fatal("LoadProfile() error = nil, want error for missing file")
	}
}
