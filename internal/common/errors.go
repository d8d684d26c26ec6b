// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях движка доверия.
// Эти ошибки позволяют вызывающему коду различать типы проблем:
// ошибка программиста, «не найдено» или инфраструктурный сбой.
package common

import "errors"

// Ошибки каталога действий
var (
	// ErrUnknownAction — вид действия отсутствует в каталоге.
	// Это ошибка программиста, а не пользовательская ситуация.
	ErrUnknownAction = errors.New("неизвестный вид trust-действия")
)

// Ошибки пользователей
var (
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки ручной корректировки
var (
	// ErrZeroAdjustment — корректировка на 0 считается ошибкой вызывающего,
	// а не тихим no-op
	ErrZeroAdjustment = errors.New("корректировка не может быть равна нулю")
)

// Ошибки админ-доступа
var (
	// ErrNotAdmin — запрос без валидного админ-токена
	ErrNotAdmin = errors.New("нет прав администратора")
)
