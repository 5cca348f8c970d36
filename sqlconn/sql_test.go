package sqlconn

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hatlonely/sqlorm/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQL {
	t.Helper()
	conn, err := NewSQLWithOptions(&SQLOptions{
		Driver:   "sqlite3",
		Database: filepath.Join(t.TempDir(), "test.db"),
		MaxConns: 1,
		MaxIdle:  1,
	})
	require.NoError(t, err)
	conn.SetLogger(log.Discard())
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestSQL_SQLite(t *testing.T) {
	Convey("sqlite 连接", t, func() {
		ctx := context.Background()
		conn := newTestSQLite(t)

		So(conn.Dialect(), ShouldEqual, SQLite)
		So(conn.ExecuteStatement(ctx, "CREATE TABLE IF NOT EXISTS item (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)"), ShouldBeNil)

		Convey("插入返回生成的主键", func() {
			key, ok, err := conn.ExecuteAndReturnGeneratedKey(ctx, "INSERT INTO item (name) VALUES (?)", "a")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(key, ShouldEqual, int64(1))

			key, ok, err = conn.ExecuteAndReturnGeneratedKey(ctx, "INSERT INTO item (name) VALUES (?)", "b")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(key, ShouldEqual, int64(2))
		})

		Convey("查询结果保留列顺序", func() {
			_, _, err := conn.ExecuteAndReturnGeneratedKey(ctx, "INSERT INTO item (name) VALUES (?)", "a")
			So(err, ShouldBeNil)

			records, err := conn.ExecuteQuery(ctx, "SELECT * FROM item WHERE name = ?", "a")
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 1)
			So(records[0].Columns(), ShouldResemble, []string{"id", "name"})

			v, ok := records[0].Get("NAME")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "a")

			_, ok = records[0].Get("missing")
			So(ok, ShouldBeFalse)
			So(records[0].Fields(), ShouldContainKey, "id")
		})

		Convey("更新返回影响行数", func() {
			_, _, _ = conn.ExecuteAndReturnGeneratedKey(ctx, "INSERT INTO item (name) VALUES (?)", "a")
			_, _, _ = conn.ExecuteAndReturnGeneratedKey(ctx, "INSERT INTO item (name) VALUES (?)", "a")

			n, err := conn.ExecuteUpdate(ctx, "UPDATE item SET name = ? WHERE name = ?", "c", "a")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int64(2))
		})

		Convey("语法错误包装为 StatementError", func() {
			err := conn.ExecuteStatement(ctx, "CREATE TABL broken")
			So(err, ShouldNotBeNil)
			So(IsStatementError(err), ShouldBeTrue)

			var se *StatementError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.SQL, ShouldEqual, "CREATE TABL broken")
		})

		Convey("异步执行", func() {
			key, err := conn.ExecuteAndReturnGeneratedKeyAsync(ctx, "INSERT INTO item (name) VALUES (?)", "x").Join()
			So(err, ShouldBeNil)
			So(key.OK, ShouldBeTrue)

			records, err := conn.ExecuteQueryAsync(ctx, "SELECT * FROM item").Join()
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 1)

			n, err := conn.ExecuteUpdateAsync(ctx, "DELETE FROM item").Join()
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int64(1))

			_, err = conn.ExecuteStatementAsync(ctx, "DROP TABLE item").Join()
			So(err, ShouldBeNil)
		})
	})
}

func TestSQL_Mock(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	conn := NewSQLWithDB(db, MySQL)
	conn.SetLogger(log.Discard())
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO t (a) VALUES (?)").WithArgs("x").WillReturnResult(sqlmock.NewResult(42, 1))
	key, ok, err := conn.ExecuteAndReturnGeneratedKey(ctx, "INSERT INTO t (a) VALUES (?)", "x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), key)

	mock.ExpectExec("INSERT INTO t (a) VALUES (?)").WithArgs("y").WillReturnResult(sqlmock.NewResult(0, 1))
	_, ok, err = conn.ExecuteAndReturnGeneratedKey(ctx, "INSERT INTO t (a) VALUES (?)", "y")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery("SELECT * FROM t").WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow("1", int64(2)))
	records, err := conn.ExecuteQuery(ctx, "SELECT * FROM t")
	require.NoError(t, err)
	require.Len(t, records, 1)
	v, _ := records[0].Get("b")
	assert.Equal(t, int64(2), v)

	before := testutil.ToFloat64(statementTotal.WithLabelValues("mysql", "UPDATE", "error"))
	mock.ExpectExec("UPDATE t SET a = ?").WithArgs("z").WillReturnError(assert.AnError)
	_, err = conn.ExecuteUpdate(ctx, "UPDATE t SET a = ?", "z")
	assert.True(t, IsStatementError(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, before+1, testutil.ToFloat64(statementTotal.WithLabelValues("mysql", "UPDATE", "error")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(&SQLOptions{
		Driver:   "mysql",
		Host:     "localhost",
		Port:     "3306",
		Database: "test",
		Username: "root",
		Password: "123456",
		Charset:  "utf8mb4",
	})
	require.NoError(t, err)
	assert.Contains(t, dsn, "root:123456@tcp(localhost:3306)/test")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")

	dsn, err = buildDSN(&SQLOptions{Driver: "sqlite3", DSN: "file:x.db"})
	require.NoError(t, err)
	assert.Equal(t, "file:x.db", dsn)

	_, err = buildDSN(&SQLOptions{Driver: "sqlite3"})
	assert.Error(t, err)

	_, err = NewSQLWithOptions(&SQLOptions{Driver: "oracle"})
	assert.Error(t, err)
}

func TestDialectAndKind(t *testing.T) {
	d, err := DialectFor("mariadb")
	require.NoError(t, err)
	assert.Equal(t, "mariadb", d.Name())
	assert.Equal(t, "AUTO_INCREMENT", d.AutoIncrement())
	assert.Equal(t, "AUTOINCREMENT", SQLite.AutoIncrement())

	assert.Equal(t, "CREATE", statementKind("  create table x (a int)"))
	assert.Equal(t, "SELECT", statementKind("SELECT * FROM x"))
	assert.Equal(t, "", statementKind(""))
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	require.NoError(t, RegisterMetrics(reg))
}
