package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

const createQuery = `(?s)^WITH\s+new_user\s+AS\s+\(\s*INSERT\s+INTO\s+users.*ON\s+CONFLICT\s+\(email\)\s+DO\s+NOTHING.*INSERT\s+INTO\s+wallets.*FROM\s+new_user\s*$`

const getQuery = `(?s)^SELECT\s+email,\s*username,\s*salt,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`

type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := decimal.NewFromString(s)
	return err == nil && got.Equal(decimal.RequireFromString(string(d)))
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func fixtures() (*models.User, *models.Wallet) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	u := &models.User{Email: "a@x.com", Username: "alice", Salt: []byte("salt"), PasswordHash: []byte("hash"), CreatedAt: now}
	w := &models.Wallet{Email: "a@x.com", Balance: decimal.Zero, DataBonus: common.StartingDataBonus}
	return u, w
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u, w := fixtures()
	mock.ExpectExec(createQuery).
		WithArgs("a@x.com", "alice", []byte("salt"), []byte("hash"), u.CreatedAt, decimalArg("0"), int64(500)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), u, w); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u, w := fixtures()
	mock.ExpectExec(createQuery).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), u, w)
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u, w := fixtures()
	mock.ExpectExec(createQuery).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), u, w)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"email", "username", "salt", "password_hash", "created_at"}).
		AddRow("a@x.com", "alice", []byte("salt"), []byte("hash"), now)
	mock.ExpectQuery(getQuery).WithArgs("a@x.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.Email != "a@x.com" || got.Username != "alice" || string(got.PasswordHash) != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQuery).WithArgs("a@x.com").WillReturnError(errors.New("db err"))

	_, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
