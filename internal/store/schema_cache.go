package store

import (
	"database/sql"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// SchemaCache keeps recently fetched schema documents in an in-memory
// sqlite database so repeated runs against the same source do not hit
// the network every time.
type SchemaCache struct {
	DB *sql.DB
}

func NewSchemaCache() *SchemaCache {
	db, err := sql.Open("sqlite", "file:schemacache?mode=memory&cache=shared")
	if err != nil {
		log.Fatal(err)
	}
	if _, err := db.Exec(
		`create table if not exists schema_cache (
			source text primary key,
			raw blob not null,
			expires timestamp not null
		)`,
	); err != nil {
		log.Fatal(err)
	}
	return &SchemaCache{DB: db}
}

func (sc *SchemaCache) ScheduleDailyCleanUp(s gocron.Scheduler) {
	if _, err := s.NewJob(gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))), gocron.NewTask(func() {
		if err := sc.RemoveExpired(); err != nil {
			log.Println("err deleting expired schemas from cache:", err)
		}
	})); err != nil {
		log.Fatal(err)
	}
}

func (sc *SchemaCache) Add(source string, raw []byte, expires time.Time) error {
	query := `insert into schema_cache (source, raw, expires) values ($1, $2, $3)
	on conflict (source) do update set raw = $2, expires = $3`
	_, err := sc.DB.Exec(query, source, raw, expires)
	return err
}

// Get returns the cached document for source, or sql.ErrNoRows when the
// entry is missing or already expired.
func (sc *SchemaCache) Get(source string) ([]byte, error) {
	query := "select raw from schema_cache where source = $1 and expires >= CURRENT_TIMESTAMP"
	var raw []byte
	err := sc.DB.QueryRow(query, source).Scan(&raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (sc *SchemaCache) Remove(source string) error {
	query := "delete from schema_cache where source = $1"
	_, err := sc.DB.Exec(query, source)
	return err
}

func (sc *SchemaCache) RemoveExpired() error {
	query := "delete from schema_cache where expires < CURRENT_TIMESTAMP"
	_, err := sc.DB.Exec(query)
	return err
}
