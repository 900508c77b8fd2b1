package domain

import (
	"errors"
	"fmt"
)

// Ошибки источников. Оркестратор различает их при классификации сбоев.
var (
	// ErrTransientNetwork - временный сетевой сбой, цикл продолжается.
	ErrTransientNetwork = errors.New("transient network failure")

	// ErrAuthenticationExpired - сессия источника протухла, требуется
	// вмешательство оператора. Профиль для этого источника приостанавливается.
	ErrAuthenticationExpired = errors.New("source authentication expired")

	// ErrCycleTimeout - цикл сканирования не уложился в дедлайн.
	ErrCycleTimeout = errors.New("scan cycle deadline exceeded")
)

// ProtectionChallengeError - источник ответил антибот-заслоном (ShieldSquare,
// капча и т.п.). URL сохраняем для ручного разбора.
type ProtectionChallengeError struct {
	URL string
}

func (e *ProtectionChallengeError) Error() string {
	return fmt.Sprintf("protection challenge encountered at %s", e.URL)
}

// ParseError - не удалось извлечь поле из сырой разметки. Объявление
// пропускается, ошибка считается, но цикл не прерывается.
type ParseError struct {
	Source Source
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s field %q: %v", e.Source, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DeliveryError - сбой доставки уведомления. Transient управляет ретраями.
type DeliveryError struct {
	Channel   Channel
	Transient bool
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
