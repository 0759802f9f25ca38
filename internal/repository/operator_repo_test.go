package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestOperatorRepository_Schema(t *testing.T) {
	want := []column{
		{"id", "INTEGER", false},
		{"username", "TEXT", true},
		{"password_hash", "TEXT", true},
	}
	got := tableColumns(t, newMemoryDB(t), "operators")
	if len(got) != len(want) {
		t.Fatalf("columns %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestOperatorRepository_CreateAndLookup(t *testing.T) {
	repo := NewOperatorRepository(newMemoryDB(t))

	first, err := repo.Create("puppeteer", "$2a$10$hash-one")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := repo.Create("stagehand", "$2a$10$hash-two")
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if first == 0 || second == first {
		t.Fatalf("ids %d and %d", first, second)
	}

	// usernames are unique
	if _, err := repo.Create("puppeteer", "$2a$10$other"); err == nil || !strings.Contains(err.Error(), `insert operator "puppeteer"`) {
		t.Fatalf("duplicate Create err = %v", err)
	}

	op, err := repo.GetByUsername("stagehand")
	if err != nil || op == nil {
		t.Fatalf("GetByUsername: %+v err=%v", op, err)
	}
	if op.ID != second || op.PasswordHash != "$2a$10$hash-two" {
		t.Fatalf("operator %+v", op)
	}

	// lookups are exact
	if op, err := repo.GetByUsername("Stagehand"); err != nil || op != nil {
		t.Fatalf("case-folded lookup: %+v err=%v", op, err)
	}
}

func TestOperatorRepository_Errors(t *testing.T) {
	t.Run("last insert id", func(t *testing.T) {
		conn, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
			WithArgs("rigger", "h").
			WillReturnResult(sqlmock.NewErrorResult(errors.New("no rowid")))

		id, err := NewOperatorRepository(conn).Create("rigger", "h")
		if id != 0 || err == nil || !strings.Contains(err.Error(), "last insert id") {
			t.Fatalf("id=%d err=%v", id, err)
		}
	})

	t.Run("lookup failure is not a miss", func(t *testing.T) {
		conn, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectOperatorByUsernameSQL)).
			WithArgs("rigger").
			WillReturnError(sql.ErrConnDone)

		op, err := NewOperatorRepository(conn).GetByUsername("rigger")
		if op != nil || !errors.Is(err, sql.ErrConnDone) {
			t.Fatalf("op=%+v err=%v", op, err)
		}
	})
}
