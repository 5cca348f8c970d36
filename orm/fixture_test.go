package orm

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hatlonely/sqlorm/log"
	"github.com/hatlonely/sqlorm/sqlconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type User struct {
	ID   int    `rdb:"id,auto"`
	Name string `rdb:"name,notnull"`
}

func (User) TableName() string { return "users" }

type Order struct {
	ID      int    `rdb:"id,auto"`
	Product string `rdb:"product"`
	User    *User  `rdb:"user_id,fk"`
}

func (Order) TableName() string { return "orders" }

// Profile 主键同时是外键
type Profile struct {
	User *User  `rdb:"user_id,pk,fk"`
	Bio  string `rdb:"bio"`
}

func (Profile) TableName() string { return "profiles" }

type Node struct {
	ID     int    `rdb:"id,auto"`
	Label  string `rdb:"label"`
	Parent *Node  `rdb:"parent_id,fk"`
}

func (Node) TableName() string { return "nodes" }

type Status int

const (
	StatusActive Status = iota + 1
	StatusBanned
)

var statusNames = map[Status]string{
	StatusActive: "active",
	StatusBanned: "banned",
}

func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, errors.Errorf("unknown status %d", int(s))
	}
	return []byte(name), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for k, v := range statusNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return errors.Errorf("unknown status %q", string(text))
}

type Address struct {
	City string
	Zip  int
}

type Account struct {
	ID      int            `rdb:"id,auto"`
	Code    string         `rdb:"code,adapter=upper"`
	Tags    []string       `rdb:"tags,adapter=csv"`
	Status  Status         `rdb:"status"`
	Home    Address        `rdb:"home"`
	Extra   map[string]int `rdb:"extra"`
	hidden  string         `rdb:"hidden"`
	Ignored string
}

func (Account) TableName() string { return "accounts" }

type AllKinds struct {
	ID         int       `rdb:"id,auto"`
	Name       string    `rdb:"name"`
	Age        int32     `rdb:"age"`
	Count      uint32    `rdb:"count"`
	Big        int64     `rdb:"big"`
	UBig       uint64    `rdb:"ubig"`
	Small      int16     `rdb:"small"`
	Tiny       int8      `rdb:"tiny"`
	Ratio      float64   `rdb:"ratio"`
	Score      float32   `rdb:"score"`
	Active     bool      `rdb:"active"`
	Grade      Char      `rdb:"grade"`
	Birthday   Date      `rdb:"birthday"`
	Alarm      TimeOfDay `rdb:"alarm"`
	CreatedAt  time.Time `rdb:"created_at"`
	Avatar     []byte    `rdb:"avatar"`
	Bio        Clob      `rdb:"bio"`
	Balance    big.Float `rdb:"balance"`
	Population big.Int   `rdb:"population"`
	Nickname   *string   `rdb:"nickname"`
}

func (AllKinds) TableName() string { return "all_kinds" }

func newAllKinds() *AllKinds {
	nickname := "nick"
	balance, _ := new(big.Float).SetString("12345.6789")
	population, _ := new(big.Int).SetString("123456789012345", 10)
	return &AllKinds{
		Name:       "alice",
		Age:        30,
		Count:      7,
		Big:        1 << 40,
		UBig:       1 << 50,
		Small:      -12,
		Tiny:       8,
		Ratio:      0.25,
		Score:      1.5,
		Active:     true,
		Grade:      'A',
		Birthday:   NewDate(1990, time.May, 6),
		Alarm:      NewTimeOfDay(7, 30, 15),
		CreatedAt:  time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC),
		Avatar:     []byte{0x00, 0x01, 0xfe},
		Bio:        "long text",
		Balance:    *balance,
		Population: *population,
		Nickname:   &nickname,
	}
}

func newTestSQLite(t *testing.T) *sqlconn.SQL {
	t.Helper()
	conn, err := sqlconn.NewSQLWithOptions(&sqlconn.SQLOptions{
		Driver:   "sqlite3",
		Database: filepath.Join(t.TempDir(), "orm.db"),
		MaxConns: 1,
		MaxIdle:  1,
	})
	require.NoError(t, err)
	conn.SetLogger(log.Discard())
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newTestMock(t *testing.T, dialect sqlconn.Dialect) (*sqlconn.SQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	conn := sqlconn.NewSQLWithDB(db, dialect)
	conn.SetLogger(log.Discard())
	return conn, mock
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.SetLogger(log.Discard())
	return r
}
