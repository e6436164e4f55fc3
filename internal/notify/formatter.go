package notify

import (
	"fmt"
	"strings"

	"github.com/tackey2/aitradegame/internal/domain"
)

// FormatIncident форматирует инцидент для отправки в чат
func FormatIncident(incident *domain.Incident) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s *%s*\n", severityEmoji(incident.Severity), incidentTitle(incident.Type)))
	sb.WriteString(fmt.Sprintf("Model: %d\n", incident.ModelID))
	sb.WriteString(fmt.Sprintf("Severity: %s\n", incident.Severity))
	sb.WriteString(incident.Message)

	return sb.String()
}

// FormatPendingDecision форматирует решение, ожидающее подтверждения
func FormatPendingDecision(model *domain.Model, decision *domain.PendingDecision) string {
	var sb strings.Builder

	sb.WriteString("⏳ *Decision awaiting approval*\n")
	if model != nil {
		sb.WriteString(fmt.Sprintf("Model: %s (#%d)\n", model.Name, model.ID))
	} else {
		sb.WriteString(fmt.Sprintf("Model: #%d\n", decision.ModelID))
	}
	sb.WriteString(fmt.Sprintf("Signal: %s\n", decision.Signal))
	sb.WriteString(fmt.Sprintf("Coin: %s\n", decision.Coin))
	sb.WriteString(fmt.Sprintf("Quantity: %.8f\n", decision.Quantity))
	sb.WriteString(fmt.Sprintf("Confidence: %.0f%%\n", decision.Confidence*100))
	if decision.Justification != "" {
		sb.WriteString(fmt.Sprintf("Reasoning: %s\n", decision.Justification))
	}
	sb.WriteString(fmt.Sprintf("\nApprove or reject: decision #%d", decision.ID))

	return sb.String()
}

// FormatEmergencyStop форматирует уведомление об аварийной остановке
func FormatEmergencyStop(stopped int) string {
	return fmt.Sprintf("🛑 *EMERGENCY STOP*\n%d models forced to simulation/manual.\nOrders already sent to the exchange are not cancelled.", stopped)
}

// severityEmoji возвращает эмодзи для серьезности инцидента
func severityEmoji(severity domain.IncidentSeverity) string {
	switch severity {
	case domain.SeverityDanger:
		return "🚨"
	case domain.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// incidentTitle возвращает заголовок для типа инцидента
func incidentTitle(incidentType domain.IncidentType) string {
	switch incidentType {
	case domain.IncidentRiskViolation:
		return "Risk limit violation"
	case domain.IncidentExecutionError:
		return "Order execution failed"
	case domain.IncidentCredentialsChange:
		return "Exchange credentials changed"
	case domain.IncidentEmergencyStop:
		return "Emergency stop"
	default:
		return string(incidentType)
	}
}
