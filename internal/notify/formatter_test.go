package notify

import (
	"strings"
	"testing"

	"github.com/tackey2/aitradegame/internal/domain"
)

func TestFormatIncident(t *testing.T) {
	tests := []struct {
		name     string
		incident *domain.Incident
		want     []string
	}{
		{
			name: "danger risk violation",
			incident: &domain.Incident{
				ModelID:  3,
				Type:     domain.IncidentRiskViolation,
				Severity: domain.SeverityDanger,
				Message:  "daily_loss: daily loss 6.00% of initial capital (limit 5.00%)",
			},
			want: []string{"🚨", "Risk limit violation", "Model: 3", "daily loss 6.00%"},
		},
		{
			name: "info credentials change",
			incident: &domain.Incident{
				ModelID:  1,
				Type:     domain.IncidentCredentialsChange,
				Severity: domain.SeverityInfo,
				Message:  "exchange credentials updated",
			},
			want: []string{"ℹ️", "Exchange credentials changed", "Severity: info"},
		},
		{
			name: "warning execution",
			incident: &domain.Incident{
				ModelID:  2,
				Type:     domain.IncidentExecutionError,
				Severity: domain.SeverityWarning,
				Message:  "symbol info unavailable",
			},
			want: []string{"⚠️", "Order execution failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatIncident(tt.incident)
			for _, fragment := range tt.want {
				if !strings.Contains(got, fragment) {
					t.Errorf("FormatIncident() = %q, want fragment %q", got, fragment)
				}
			}
		})
	}
}

func TestFormatPendingDecision(t *testing.T) {
	model := &domain.Model{ID: 4, Name: "gamma"}
	decision := &domain.PendingDecision{
		ID:            17,
		ModelID:       4,
		Coin:          "ETH",
		Signal:        domain.SignalSellToExit,
		Quantity:      1.5,
		Confidence:    0.85,
		Justification: "take profit at resistance",
	}

	got := FormatPendingDecision(model, decision)
	for _, fragment := range []string{
		"gamma (#4)",
		"sell_to_exit",
		"ETH",
		"1.50000000",
		"85%",
		"take profit at resistance",
		"decision #17",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("FormatPendingDecision() missing %q in %q", fragment, got)
		}
	}

	// без модели остается только идентификатор
	got = FormatPendingDecision(nil, decision)
	if !strings.Contains(got, "Model: #4") {
		t.Errorf("FormatPendingDecision(nil, ...) = %q, want model id fallback", got)
	}
}

func TestFormatEmergencyStop(t *testing.T) {
	got := FormatEmergencyStop(3)
	if !strings.Contains(got, "🛑") || !strings.Contains(got, "3 models") {
		t.Errorf("FormatEmergencyStop() = %q", got)
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLength int
		wantParts int
	}{
		{"short stays whole", "hello\nworld", 4096, 1},
		{"exact limit stays whole", strings.Repeat("a", 10), 10, 1},
		{"long message splits on lines", strings.Repeat("line\n", 100), 50, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := splitMessage(tt.text, tt.maxLength)
			if len(parts) != tt.wantParts {
				t.Fatalf("splitMessage() = %d parts, want %d", len(parts), tt.wantParts)
			}
			for i, part := range parts {
				if len(part) > tt.maxLength {
					t.Errorf("part %d is %d chars, above limit %d", i, len(part), tt.maxLength)
				}
			}
		})
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier

	// нулевой нотификатор не должен паниковать ни в одном методе
	n.Send("hello")
	n.IncidentRaised(&domain.Incident{Severity: domain.SeverityDanger})
	n.PendingDecisionQueued(nil, &domain.PendingDecision{})
	n.EmergencyStopped(2)
}
