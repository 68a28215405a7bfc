package store

import (
	"fmt"
	"time"
)

// ReadinessChecker — проверка готовности зеркала для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	store  *Store
	maxAge time.Duration
}

// NewReadinessChecker создаёт проверку готовности зеркала.
// maxAge — допустимый возраст последней синхронизации; старше — degraded.
func NewReadinessChecker(store *Store, maxAge time.Duration) *ReadinessChecker {
	return &ReadinessChecker{store: store, maxAge: maxAge}
}

// CheckReady возвращает статус зеркала.
// Не синхронизировалось ни разу — fail, устарело — degraded, иначе — ok.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	if !c.store.Loaded() {
		return "fail", "зеркало ещё не синхронизировалось с архивом"
	}

	age := time.Since(c.store.LastRefresh())
	if c.maxAge > 0 && age > c.maxAge {
		return "degraded", fmt.Sprintf("последняя синхронизация %s назад", age.Round(time.Second))
	}
	return "ok", "зеркало актуально"
}
