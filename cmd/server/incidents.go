package main

import (
	"github.com/tackey2/aitradegame/internal/domain"
	"github.com/tackey2/aitradegame/internal/metrics"
	"github.com/tackey2/aitradegame/internal/notify"
	"github.com/tackey2/aitradegame/internal/storage"
)

// alertingStore оборачивает хранилище так, что каждый записанный инцидент
// попадает в метрики, а danger дополнительно уходит в Telegram.
// Все компоненты пишут инциденты через эту обертку.
type alertingStore struct {
	*storage.PostgresStorage
	notifier *notify.Notifier
}

func newAlertingStore(store *storage.PostgresStorage, notifier *notify.Notifier) *alertingStore {
	return &alertingStore{PostgresStorage: store, notifier: notifier}
}

func (s *alertingStore) SaveIncident(incident *domain.Incident) error {
	if err := s.PostgresStorage.SaveIncident(incident); err != nil {
		return err
	}
	metrics.IncidentsTotal.WithLabelValues(string(incident.Severity)).Inc()
	s.notifier.IncidentRaised(incident)
	return nil
}
