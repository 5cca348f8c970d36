package orm

import (
	"reflect"
	"strings"

	"github.com/hatlonely/sqlorm/sqlconn"
)

// Definition 一个类型的表结构，由 Registry 构建，构建后不再修改
type Definition struct {
	name       string
	typ        reflect.Type
	fields     []*Field
	primaryKey *Field
	conn       sqlconn.Connection
	registry   *Registry
}

func (d *Definition) Name() string                   { return d.name }
func (d *Definition) Type() reflect.Type             { return d.typ }
func (d *Definition) Connection() sqlconn.Connection { return d.conn }
func (d *Definition) Registry() *Registry            { return d.registry }

// Fields 按声明顺序返回字段
func (d *Definition) Fields() []*Field {
	return append([]*Field(nil), d.fields...)
}

// PrimaryKey 主键字段，没有主键时为 nil
func (d *Definition) PrimaryKey() *Field {
	return d.primaryKey
}

// Field 按列名查找字段
func (d *Definition) Field(name string) (*Field, bool) {
	for _, f := range d.fields {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// BuildCreateTable 列定义在前，外键约束在后
func (d *Definition) BuildCreateTable() string {
	autoIncrement := "AUTOINCREMENT"
	if d.conn != nil && d.conn.Dialect() != nil {
		autoIncrement = d.conn.Dialect().AutoIncrement()
	}

	fragments := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		fragments = append(fragments, f.ColumnDefinition(autoIncrement))
	}
	for _, f := range d.fields {
		if constraint := f.ForeignKeyConstraint(); constraint != "" {
			fragments = append(fragments, constraint)
		}
	}
	return "CREATE TABLE IF NOT EXISTS " + d.name + "(" + strings.Join(fragments, ", ") + ")"
}

func (d *Definition) BuildDropTable() string {
	return BuildDropTable(d.name)
}

func BuildDropTable(table string) string {
	return "DROP TABLE " + table
}

// insertFields 插入时绑定的字段，跳过自增主键
func (d *Definition) insertFields() []*Field {
	fields := make([]*Field, 0, len(d.fields))
	for _, f := range d.fields {
		if !f.autoIncrement {
			fields = append(fields, f)
		}
	}
	return fields
}

func (d *Definition) BuildInsert() string {
	fields := d.insertFields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.name
	}
	return "INSERT INTO " + d.name + "(" + strings.Join(columns, ", ") + ") VALUES (" + placeholders(len(fields)) + ")"
}

func (d *Definition) BuildSelect(filter string) string {
	if filter == "" {
		return "SELECT * FROM " + d.name
	}
	return "SELECT * FROM " + d.name + " WHERE " + filter
}

// BuildUpdate 更新所有非主键列，没有主键时返回空串
func (d *Definition) BuildUpdate() string {
	if d.primaryKey == nil {
		return ""
	}
	var sets []string
	for _, f := range d.fields {
		if f != d.primaryKey {
			sets = append(sets, f.name+" = ?")
		}
	}
	return "UPDATE " + d.name + " SET " + strings.Join(sets, ", ") + " WHERE " + d.primaryKey.name + " = ?"
}

// BuildDelete 按主键删除，没有主键时返回空串
func (d *Definition) BuildDelete() string {
	if d.primaryKey == nil {
		return ""
	}
	return "DELETE FROM " + d.name + " WHERE " + d.primaryKey.name + " = ?"
}

func (d *Definition) BuildDeleteWhere(filter string) string {
	return "DELETE FROM " + d.name + " WHERE " + filter
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
