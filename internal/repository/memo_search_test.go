package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/model"
)

func TestMemoRepo_ListByOwner_Page(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM memos m WHERE m.owner_id = \? AND LOWER\(m.title\) LIKE \?`).
		WithArgs("owner-1", `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`ORDER BY m.created_at DESC, m.id ASC LIMIT \? OFFSET \?`).
		WithArgs("owner-1", `%50\%%`, 2, 2).
		WillReturnRows(sqlmock.NewRows(memoRowColumns).
			AddRow("memo-3", "owner-1", "50% off", "c", 127.0, 37.5, now, now))

	got, total, err := repo.ListByOwner(context.Background(), model.MemoListQuery{
		OwnerID: "owner-1", Title: " 50% ", Page: 2, PageSize: 2,
	})

	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, got, 1)
	assert.Equal(t, "memo-3", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoRepo_ListByOwner_EmptySkipsDataQuery(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM memos m WHERE m.owner_id = \?$`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	got, total, err := repo.ListByOwner(context.Background(), model.MemoListQuery{OwnerID: "nobody", Page: 1, PageSize: 20})

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoRepo_ListByOwner_StoreFailure(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("bad connection"))

	_, _, err := repo.ListByOwner(context.Background(), model.MemoListQuery{OwnerID: "o", Page: 1, PageSize: 20})

	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}
