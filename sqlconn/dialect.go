package sqlconn

import "github.com/pkg/errors"

const (
	DriverSQLite3 = "sqlite3"
	DriverMySQL   = "mysql"
	DriverMariaDB = "mariadb"
)

// Dialect 语句合成所需的最小方言差异
type Dialect interface {
	Name() string
	// AutoIncrement 自增主键关键字
	AutoIncrement() string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string          { return DriverSQLite3 }
func (sqliteDialect) AutoIncrement() string { return "AUTOINCREMENT" }

type mysqlDialect struct {
	name string
}

func (d mysqlDialect) Name() string        { return d.name }
func (mysqlDialect) AutoIncrement() string { return "AUTO_INCREMENT" }

var (
	SQLite  Dialect = sqliteDialect{}
	MySQL   Dialect = mysqlDialect{name: DriverMySQL}
	MariaDB Dialect = mysqlDialect{name: DriverMariaDB}
)

// DialectFor 根据驱动名返回方言
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite3, "sqlite":
		return SQLite, nil
	case DriverMySQL:
		return MySQL, nil
	case DriverMariaDB:
		return MariaDB, nil
	}
	return nil, errors.Errorf("unsupported driver: %s", driver)
}
