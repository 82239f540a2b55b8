package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// --- Mock DBTX ---

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

type mockRow struct {
	scanErr error
	scanFn  func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFn != nil {
		return r.scanFn(dest...)
	}
	return r.scanErr
}

// --- Mock Rows ---

type mockRows struct {
	data    [][]any
	idx     int
	closed  bool
	scanErr error
	errVal  error
}

func newMockRows(data [][]any) *mockRows {
	return &mockRows{data: data, idx: -1}
}

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx]
	for i, d := range dest {
		switch v := d.(type) {
		case *int64:
			*v = row[i].(int64)
		case *int:
			*v = row[i].(int)
		case *string:
			*v = row[i].(string)
		case *float64:
			*v = row[i].(float64)
		case *bool:
			*v = row[i].(bool)
		case *time.Time:
			*v = row[i].(time.Time)
		}
	}
	return nil
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.errVal }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func observationRow(id int64, city string, height int, precip float64, at time.Time, prediction bool) []any {
	return []any{id, city, 14.6, 121.0, height, 8.0, precip, at, prediction}
}

// --- Store Tests ---

func TestStore_List_NoFilter(t *testing.T) {
	db := new(mockDBTX)
	store := NewStore(db)

	at := time.Date(2024, time.July, 24, 8, 0, 0, 0, time.UTC)
	rows := newMockRows([][]any{
		observationRow(1, "Manila", 2, 80.5, at, false),
		observationRow(2, "Marikina", 6, 240, at, true),
	})

	db.On("Query", mock.Anything,
		mock.MatchedBy(func(sql string) bool {
			return !strings.Contains(sql, "WHERE") && strings.Contains(sql, "ORDER BY id")
		}),
		mock.Anything).Return(rows, nil)

	got, err := store.List(context.Background(), domain.ObservationFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, domain.Manila, got[0].City)
	assert.Equal(t, 2, got[0].FloodHeight)
	assert.InDelta(t, 80.5, got[0].Precipitation, 1e-9)
	assert.Equal(t, at, got[0].RecordedAt)
	assert.False(t, got[0].IsPrediction)
	assert.Equal(t, domain.Marikina, got[1].City)
	assert.True(t, got[1].IsPrediction)
	assert.True(t, rows.closed)

	db.AssertExpectations(t)
}

func TestStore_List_Empty(t *testing.T) {
	db := new(mockDBTX)
	store := NewStore(db)

	db.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(newMockRows(nil), nil)

	got, err := store.List(context.Background(), domain.ObservationFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_List_QueryError(t *testing.T) {
	db := new(mockDBTX)
	store := NewStore(db)

	db.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := store.List(context.Background(), domain.ObservationFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query observations")
}

func TestStore_List_ScanError(t *testing.T) {
	db := new(mockDBTX)
	store := NewStore(db)

	rows := newMockRows([][]any{{}})
	rows.scanErr = errors.New("bad column")
	db.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(rows, nil)

	_, err := store.List(context.Background(), domain.ObservationFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan observation")
}

func TestListQuery(t *testing.T) {
	manila := domain.Manila
	yes := true

	cases := []struct {
		name   string
		filter domain.ObservationFilter
		where  string
		args   []any
	}{
		{"none", domain.ObservationFilter{}, "", nil},
		{"city", domain.ObservationFilter{City: &manila}, " WHERE city = $1", []any{"Manila"}},
		{"prediction", domain.ObservationFilter{IsPrediction: &yes}, " WHERE is_prediction = $1", []any{true}},
		{
			"both",
			domain.ObservationFilter{City: &manila, IsPrediction: &yes},
			" WHERE city = $1 AND is_prediction = $2",
			[]any{"Manila", true},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, args := listQuery(tc.filter)
			assert.Equal(t, "SELECT "+observationColumns+" FROM flood_data"+tc.where+" ORDER BY id", query)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestStore_Insert(t *testing.T) {
	db := new(mockDBTX)
	store := NewStore(db)

	at := time.Date(2024, time.July, 24, 8, 0, 0, 0, time.UTC)
	db.On("QueryRow", mock.Anything,
		mock.MatchedBy(func(sql string) bool { return strings.Contains(sql, "RETURNING id") }),
		mock.MatchedBy(func(args []any) bool {
			return len(args) == 8 && args[0] == "Pasig" && args[3] == 3 && args[6] == at
		})).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 42
			return nil
		}})

	got, err := store.Insert(context.Background(), domain.FloodObservation{
		ID:            7,
		City:          domain.Pasig,
		FloodHeight:   3,
		Precipitation: 120,
		RecordedAt:    at,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, at, got.RecordedAt)
	db.AssertExpectations(t)
}

func TestStore_Insert_Error(t *testing.T) {
	db := new(mockDBTX)
	store := NewStore(db)

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanErr: errors.New("check constraint violated")})

	_, err := store.Insert(context.Background(), domain.FloodObservation{City: domain.Pasig})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert observation")
}

func TestStore_EnsureSchema(t *testing.T) {
	db := new(mockDBTX)
	store := NewStore(db)

	db.On("Exec", mock.Anything,
		mock.MatchedBy(func(sql string) bool { return strings.Contains(sql, "CREATE TABLE IF NOT EXISTS flood_data") }),
		mock.Anything).Return(pgconn.CommandTag{}, nil)

	require.NoError(t, store.EnsureSchema(context.Background()))
	db.AssertExpectations(t)
}

func TestStore_Ping_FallsBackToSelect(t *testing.T) {
	db := new(mockDBTX)
	store := NewStore(db)

	db.On("QueryRow", mock.Anything, "SELECT 1", mock.Anything).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*int) = 1
			return nil
		}})

	require.NoError(t, store.Ping(context.Background()))
}
