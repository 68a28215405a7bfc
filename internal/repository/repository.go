// Пакет repository — доступ к таблицам PostgreSQL портала.
// Единственное персистентное состояние портала — пользовательские
// настройки интерфейса; всё остальное живёт в зеркале и на бэкенде.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound — запись не найдена.
var ErrNotFound = errors.New("запись не найдена")

// DBTX — общий интерфейс для pgxpool.Pool и pgx.Tx.
// Позволяет использовать репозитории как с пулом, так и внутри транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
