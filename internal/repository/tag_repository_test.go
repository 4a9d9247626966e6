package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"medication-sku-service/internal/model"
	repo "medication-sku-service/internal/repository"
)

var tagColumns = []string{"id", "user_id", "name", "created_at"}

func TestPostgresTagRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresTagRepository(db)

	owner := uuid.New()
	rows := sqlmock.NewRows(tagColumns).
		AddRow(uuid.NewString(), owner.String(), "Vaccine", time.Now()).
		AddRow(uuid.NewString(), owner.String(), "Analgesic", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, name, created_at FROM tags ORDER BY name DESC`)).WillReturnRows(rows)

	tags, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 2)
	require.Equal(t, "Vaccine", tags[0].Name)
	require.Equal(t, owner, tags[1].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTagRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresTagRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tags WHERE id = $1`)).WillReturnError(sql.ErrNoRows)

	_, err := r.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTagRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresTagRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO tags (user_id, name)`)).
		WithArgs(sqlmock.AnyArg(), "Analgesic").
		WillReturnError(uniqueViolation(repo.ConstraintTagName))

	_, err := r.Create(context.Background(), &model.Tag{UserID: uuid.New(), Name: "Analgesic"})

	var uniqueErr *repo.UniqueViolationError
	require.ErrorAs(t, err, &uniqueErr)
	require.Equal(t, repo.ConstraintTagName, uniqueErr.Constraint)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTagRepository_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresTagRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tags SET name = $1 WHERE id = $2`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := r.Update(context.Background(), &model.Tag{ID: uuid.New(), Name: "X"})
	require.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTagRepository_GetOrCreate(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresTagRepository(db)

	owner := uuid.New()
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name`)).
		WithArgs(sqlmock.AnyArg(), "Analgesic").
		WillReturnRows(sqlmock.NewRows(tagColumns).AddRow(id.String(), owner.String(), "Analgesic", time.Now()))

	tag, err := r.GetOrCreate(context.Background(), owner, "Analgesic")
	require.NoError(t, err)
	require.Equal(t, id, tag.ID)
	require.Equal(t, owner, tag.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTagRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	r := repo.NewPostgresTagRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tags WHERE id = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Delete(context.Background(), uuid.New()))
	require.NoError(t, mock.ExpectationsWereMet())
}
