package domain

// Environment определяет режим исполнения модели
type Environment string

const (
	EnvSimulation Environment = "simulation"
	EnvLive       Environment = "live"
)

// Valid проверяет допустимость значения
func (e Environment) Valid() bool {
	switch e {
	case EnvSimulation, EnvLive:
		return true
	}
	return false
}

func (e Environment) String() string { return string(e) }

// Automation определяет уровень автономности модели
type Automation string

const (
	AutomationManual   Automation = "manual"
	AutomationSemiAuto Automation = "semi_automated"
	AutomationFullAuto Automation = "fully_automated"
)

// Valid проверяет допустимость значения
func (a Automation) Valid() bool {
	switch a {
	case AutomationManual, AutomationSemiAuto, AutomationFullAuto:
		return true
	}
	return false
}

func (a Automation) String() string { return string(a) }

// ExchangeEnvironment определяет контур биржи (testnet или mainnet)
type ExchangeEnvironment string

const (
	ExchangeTestnet ExchangeEnvironment = "testnet"
	ExchangeMainnet ExchangeEnvironment = "mainnet"
)

// Valid проверяет допустимость значения
func (e ExchangeEnvironment) Valid() bool {
	switch e {
	case ExchangeTestnet, ExchangeMainnet:
		return true
	}
	return false
}

func (e ExchangeEnvironment) String() string { return string(e) }

// Signal определяет торговый сигнал решения AI
type Signal string

const (
	SignalBuyToEnter  Signal = "buy_to_enter"
	SignalBuyToExit   Signal = "buy_to_exit"
	SignalSellToEnter Signal = "sell_to_enter"
	SignalSellToExit  Signal = "sell_to_exit"
	SignalHold        Signal = "hold"
)

// Valid проверяет допустимость значения
func (s Signal) Valid() bool {
	switch s {
	case SignalBuyToEnter, SignalBuyToExit, SignalSellToEnter, SignalSellToExit, SignalHold:
		return true
	}
	return false
}

// Side возвращает сторону ордера для сигнала; пустая строка для hold
func (s Signal) Side() string {
	switch s {
	case SignalBuyToEnter, SignalBuyToExit:
		return SideBuy
	case SignalSellToEnter, SignalSellToExit:
		return SideSell
	}
	return ""
}

// Action возвращает действие сделки ("buy"/"sell"); пустая строка для hold
func (s Signal) Action() string {
	switch s {
	case SignalBuyToEnter, SignalBuyToExit:
		return ActionBuy
	case SignalSellToEnter, SignalSellToExit:
		return ActionSell
	}
	return ""
}

func (s Signal) String() string { return string(s) }

// DecisionStatus определяет статус отложенного решения
type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "pending"
	DecisionApproved DecisionStatus = "approved"
	DecisionRejected DecisionStatus = "rejected"
	DecisionExpired  DecisionStatus = "expired"
)

// Valid проверяет допустимость значения
func (d DecisionStatus) Valid() bool {
	switch d {
	case DecisionPending, DecisionApproved, DecisionRejected, DecisionExpired:
		return true
	}
	return false
}

// Terminal сообщает, является ли статус конечным
func (d DecisionStatus) Terminal() bool {
	return d == DecisionApproved || d == DecisionRejected || d == DecisionExpired
}

func (d DecisionStatus) String() string { return string(d) }

// IncidentType определяет тип инцидента
type IncidentType string

const (
	IncidentRiskViolation     IncidentType = "risk_violation"
	IncidentExecutionError    IncidentType = "execution_error"
	IncidentCredentialsChange IncidentType = "credentials_change"
	IncidentEmergencyStop     IncidentType = "emergency_stop"
)

func (t IncidentType) String() string { return string(t) }

// IncidentSeverity определяет серьёзность инцидента
type IncidentSeverity string

const (
	SeverityInfo    IncidentSeverity = "info"
	SeverityWarning IncidentSeverity = "warning"
	SeverityDanger  IncidentSeverity = "danger"
)

func (s IncidentSeverity) String() string { return string(s) }
