package domain

import "testing"

func TestSignalMapping(t *testing.T) {
	tests := []struct {
		name       string
		signal     Signal
		wantValid  bool
		wantSide   string
		wantAction string
	}{
		{"buy to enter", SignalBuyToEnter, true, SideBuy, ActionBuy},
		{"buy to exit", SignalBuyToExit, true, SideBuy, ActionBuy},
		{"sell to enter", SignalSellToEnter, true, SideSell, ActionSell},
		{"sell to exit", SignalSellToExit, true, SideSell, ActionSell},
		{"hold", SignalHold, true, "", ""},
		{"unknown", Signal("long"), false, "", ""},
		{"empty", Signal(""), false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.signal.Valid(); got != tt.wantValid {
				t.Errorf("Valid() = %v, want %v", got, tt.wantValid)
			}
			if got := tt.signal.Side(); got != tt.wantSide {
				t.Errorf("Side() = %q, want %q", got, tt.wantSide)
			}
			if got := tt.signal.Action(); got != tt.wantAction {
				t.Errorf("Action() = %q, want %q", got, tt.wantAction)
			}
		})
	}
}

func TestDecisionStatusTerminal(t *testing.T) {
	tests := []struct {
		status DecisionStatus
		want   bool
	}{
		{DecisionPending, false},
		{DecisionApproved, true},
		{DecisionRejected, true},
		{DecisionExpired, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnumValidation(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
		check func() bool
	}{
		{"simulation environment", true, Environment("simulation").Valid},
		{"live environment", true, Environment("live").Valid},
		{"unknown environment", false, Environment("paper").Valid},
		{"manual automation", true, Automation("manual").Valid},
		{"semi automation", true, Automation("semi_automated").Valid},
		{"full automation", true, Automation("fully_automated").Valid},
		{"unknown automation", false, Automation("auto").Valid},
		{"testnet", true, ExchangeEnvironment("testnet").Valid},
		{"mainnet", true, ExchangeEnvironment("mainnet").Valid},
		{"unknown exchange env", false, ExchangeEnvironment("sandbox").Valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}
