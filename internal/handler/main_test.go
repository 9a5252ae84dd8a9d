package handler

import (
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/schemawatch/schemawatch/internal/store"
	"github.com/schemawatch/schemawatch/internal/util"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

const testUserPassword = "testpassword"

// real constraint errors from the driver, so the handlers' error
// classification sees what production sees
var (
	uniqueConstraintErr     error
	foreignKeyConstraintErr error
)

func TestMain(m *testing.M) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		log.Fatal(err)
	}

	if _, err := db.Exec(
		"create table things (id integer primary key, name text not null unique);",
	); err != nil {
		log.Fatal(err)
	}
	if _, err := db.Exec("insert into things (name) values ('dupe');"); err != nil {
		log.Fatal(err)
	}
	if _, uniqueConstraintErr = db.Exec(
		"insert into things (name) values ('dupe');",
	); uniqueConstraintErr == nil {
		log.Fatal("expected a unique constraint error")
	}

	if _, err := db.Exec(
		`create table owned_things (
			id integer primary key,
			thing_id integer not null references things (id)
		);`,
	); err != nil {
		log.Fatal(err)
	}
	if _, foreignKeyConstraintErr = db.Exec(
		"insert into owned_things (thing_id) values (9999);",
	); foreignKeyConstraintErr == nil {
		log.Fatal("expected a foreign key constraint error")
	}

	os.Exit(m.Run())
}

func generateUser(
	role store.Role,
	passwordChangedOn *time.Time,
	sessionExpires sql.NullTime,
) *store.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(testUserPassword), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return &store.User{
		UserID:            rand.Int63(),
		UserRoleID:        role,
		Username:          fmt.Sprintf("testuser%d", time.Now().UnixNano()),
		PasswordHash:      string(hash),
		PasswordChangedOn: passwordChangedOn,
		SessionExpires:    sessionExpires,
	}
}

func generateActiveUser(role store.Role) *store.User {
	return generateUser(
		role,
		util.AsPtr(time.Now().UTC().Add(-time.Hour)),
		sql.NullTime{Time: time.Now().UTC().Add(time.Hour), Valid: true},
	)
}
