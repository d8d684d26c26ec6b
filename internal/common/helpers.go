// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входит работа с календарными границами: движок нормализует
// все окна (день, месяц) к UTC, чтобы лимиты и месячные бонусы
// не зависели от часового пояса процесса.
package common

import "time"

// StartOfDayUTC возвращает начало календарного дня (00:00 UTC) для момента t.
// Используется дневным лимитом действий.
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonthUTC возвращает первое число текущего месяца (00:00 UTC).
// Используется для идемпотентности месячного бонуса: запись бонуса
// «на этот месяц» ищется начиная с этой границы.
func StartOfMonthUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysAgo возвращает момент «n дней назад» от t.
func DaysAgo(t time.Time, n int) time.Time {
	return t.Add(-time.Duration(n) * 24 * time.Hour)
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (UTC).
// Используется в логах и ответах статистики.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("02.01.2006 15:04")
}
