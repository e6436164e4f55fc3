package domain

import "errors"

var (
	// ErrNotFound возвращается когда запись не найдена
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input")

	// ErrTerminalState возвращается при попытке изменить решение в конечном статусе
	ErrTerminalState = errors.New("decision already in terminal state")

	// ErrInsufficientBalance возвращается при нехватке денег или актива
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOrderTooSmall возвращается когда ордер ниже минимумов биржи
	ErrOrderTooSmall = errors.New("order below exchange minimum")

	// ErrNoCredentials возвращается когда у модели нет ключей для её контура
	ErrNoCredentials = errors.New("no exchange credentials")

	// ErrModelInactive возвращается при попытке запустить цикл неактивной модели
	ErrModelInactive = errors.New("model is not active")

	// ErrExchangeAPI возвращается при ошибке API биржи
	ErrExchangeAPI = errors.New("exchange API error")
)
