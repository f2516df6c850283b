package shared

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestPriceWithVAT(t *testing.T) {
	require.Equal(t, 1190.0, PriceWithVAT(1000))
	require.Equal(t, 0.0, PriceWithVAT(0))
	require.Equal(t, 11.9, PriceWithVAT(10))
	require.Equal(t, 12.5545, PriceWithVAT(10.55))
	require.Equal(t, 0.0, PriceWithVAT(math.NaN()))
}

func TestMoneyHelpers(t *testing.T) {
	require.Equal(t, 140.0, SalePrice(100))
	require.Equal(t, 0.0, SalePrice(math.Inf(1)))
	require.Equal(t, 2.35, RoundCents(2.345))
	require.Equal(t, 0.0, Num(math.Inf(-1)))
	require.Equal(t, 3.5, Num(3.5))
}

func TestFormatter(t *testing.T) {
	f := NewFormatter("en-US")
	require.Equal(t, "$1,234.50", f.Currency(1234.5))
	require.Equal(t, "12.5", f.Quantity(12.50))
	require.Equal(t, "0", f.Quantity(math.NaN()))

	var nilFormatter *Formatter
	require.Equal(t, "$3.10", nilFormatter.Currency(3.1))
	require.NotNil(t, NewFormatter("not a locale"))
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("  ", DefaultPhoneRegion)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = NormalizePhone("12", DefaultPhoneRegion)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestErrorKinds(t *testing.T) {
	require.ErrorIs(t, NotFound("item", 3), ErrNotFound)
	require.EqualError(t, NotFound("item", 3), "not found: item 3")
	require.ErrorIs(t, Conflict("x"), ErrConflict)
	require.ErrorIs(t, InvalidArgument("bad %d", 1), ErrInvalidArgument)

	boom := errors.New("boom")
	wrapped := Persistence(boom)
	require.ErrorIs(t, wrapped, ErrPersistence)
	require.ErrorIs(t, wrapped, boom)
	require.Equal(t, wrapped, Persistence(wrapped))
	require.NoError(t, Persistence(nil))
}

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestAuditLoggerRecord(t *testing.T) {
	db := &fakeExecer{}
	logger := NewAuditLogger(db)

	require.Error(t, logger.Record(context.Background(), AuditLog{Action: AuditActionDelete}))
	require.Empty(t, db.calls)

	err := logger.Record(context.Background(), AuditLog{Action: AuditActionDelete, Entity: "items", EntityID: "7"})
	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	require.Equal(t, []byte(`{}`), db.calls[0].args[3])

	var nilLogger *AuditLogger
	require.Error(t, nilLogger.Record(context.Background(), AuditLog{}))
}

func TestIdempotencyStore(t *testing.T) {
	db := &fakeExecer{}
	store := NewIdempotencyStore(db)
	require.NoError(t, store.CheckAndInsert(context.Background(), "k1", "mod"))
	require.ErrorIs(t, store.CheckAndInsert(context.Background(), "", "mod"), ErrInvalidArgument)

	db.err = &pgconn.PgError{Code: "23505"}
	err := store.CheckAndInsert(context.Background(), "k1", "mod")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	require.ErrorIs(t, err, ErrConflict)

	db.err = errors.New("connection reset")
	require.ErrorIs(t, store.CheckAndInsert(context.Background(), "k2", "mod"), ErrPersistence)

	db.err = nil
	require.NoError(t, store.Delete(context.Background(), "k1"))
	require.Equal(t, "paintworks:job:refresh:lock", JobLockKey("refresh"))
}
