package wallets

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
)

const (
	getQuery    = `(?s)^SELECT\s+email,\s*balance,\s*data_bonus,\s*updated_at\s+FROM\s+wallets\s+WHERE\s+email\s*=\s*\$1\s*$`
	creditQuery = `(?s)^UPDATE\s+wallets\s+SET\s+balance\s*=\s*balance\s*\+\s*\$2.*WHERE\s+email\s*=\s*\$1\s+RETURNING\s+balance\s*$`
	debitQuery  = `(?s)^UPDATE\s+wallets\s+SET\s+balance\s*=\s*balance\s*-\s*\$2.*WHERE\s+email\s*=\s*\$1\s+AND\s+balance\s*>=\s*\$2\s+RETURNING\s+balance\s*$`
)

type decimalArg string

func (a decimalArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := decimal.NewFromString(s)
	return err == nil && got.Equal(decimal.RequireFromString(string(a)))
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestPostgres_Get(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"email", "balance", "data_bonus", "updated_at"}).
		AddRow("a@x.com", "1000.00", int64(500), time.Now())
	mock.ExpectQuery(getQuery).WithArgs("a@x.com").WillReturnRows(rows)

	w, err := repo.Get(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !w.Balance.Equal(decimal.NewFromInt(1000)) || w.DataBonus != 500 {
		t.Fatalf("unexpected wallet: %+v", w)
	}
}

func TestPostgres_Get_Unknown(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	if _, err := repo.Get(context.Background(), "ghost@x.com"); !errors.Is(err, common.ErrUnknownAccount) {
		t.Fatalf("want ErrUnknownAccount, got %v", err)
	}
}

func TestPostgres_Credit(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(creditQuery).
		WithArgs("a@x.com", decimalArg("1000")).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("1000.00"))

	bal, err := repo.Credit(context.Background(), "a@x.com", decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("Credit error: %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected balance %s", bal)
	}
}

func TestPostgres_Credit_Errors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	if _, err := repo.Credit(context.Background(), "a@x.com", decimal.Zero); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}

	mock.ExpectQuery(creditQuery).WillReturnError(sql.ErrNoRows)
	if _, err := repo.Credit(context.Background(), "ghost@x.com", decimal.NewFromInt(1)); !errors.Is(err, common.ErrUnknownAccount) {
		t.Fatalf("want ErrUnknownAccount, got %v", err)
	}

	mock.ExpectQuery(creditQuery).WillReturnError(errors.New("db down"))
	_, err := repo.Credit(context.Background(), "a@x.com", decimal.NewFromInt(1))
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgres_Debit(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(debitQuery).
		WithArgs("a@x.com", decimalArg("500")).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("500.00"))

	bal, err := repo.Debit(context.Background(), "a@x.com", decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("Debit error: %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected balance %s", bal)
	}
}

func TestPostgres_Debit_Insufficient(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(debitQuery).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(getQuery).WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"email", "balance", "data_bonus", "updated_at"}).
			AddRow("a@x.com", "100.00", int64(500), time.Now()))

	bal, err := repo.Debit(context.Background(), "a@x.com", decimal.NewFromInt(500))
	if !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance, got %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected balance %s", bal)
	}
}

func TestPostgres_Debit_Unknown(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(debitQuery).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(getQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	if _, err := repo.Debit(context.Background(), "ghost@x.com", decimal.NewFromInt(1)); !errors.Is(err, common.ErrUnknownAccount) {
		t.Fatalf("want ErrUnknownAccount, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
