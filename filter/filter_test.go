package filter

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLeafFilters(t *testing.T) {
	Convey("叶子条件", t, func() {
		for _, c := range []struct {
			filter Filter
			sql    string
			args   []any
		}{
			{Eq("status", "active"), "status = ?", []any{"active"}},
			{Eq("deleted_at", nil), "deleted_at IS NULL", nil},
			{&In{Column: "id", Values: []any{1, 2, 3}}, "id IN (?, ?, ?)", []any{1, 2, 3}},
			{&Match{Column: "name", Value: "li"}, "name LIKE ?", []any{"%li%"}},
			{&Prefix{Column: "name", Value: "al"}, "name LIKE ?", []any{"al%"}},
			{&Wildcard{Column: "name", Value: "a*c?"}, "name LIKE ?", []any{"a%c_"}},
			{&Regexp{Column: "name", Value: "^a"}, "name REGEXP ?", []any{"^a"}},
			{&Exists{Column: "users.email"}, "users.email IS NOT NULL", nil},
			{&Range{Column: "age", Gte: 18, Lt: 60}, "age >= ? AND age < ?", []any{18, 60}},
			{&Range{Column: "age"}, "", nil},
		} {
			sql, args, err := c.filter.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, c.sql)
			So(args, ShouldResemble, c.args)
		}
	})

	Convey("非法列名", t, func() {
		for _, f := range []Filter{
			Eq("name; DROP TABLE users", 1),
			&Range{Column: "1age", Gt: 1},
			&Exists{Column: ""},
			&Match{Column: "a.b.c", Value: "x"},
		} {
			_, _, err := f.ToSQL()
			So(err, ShouldNotBeNil)
		}
	})

	Convey("空的 In", t, func() {
		_, _, err := (&In{Column: "id"}).ToSQL()
		So(err, ShouldNotBeNil)
	})
}

func TestBool(t *testing.T) {
	Convey("布尔组合", t, func() {
		Convey("Must Should MustNot", func() {
			q := &Bool{
				Must:    []Filter{Eq("status", "active"), &Range{Column: "age", Gte: 18}},
				Should:  []Filter{&Prefix{Column: "name", Value: "a"}, &Prefix{Column: "name", Value: "b"}},
				MustNot: []Filter{Eq("role", "admin")},
			}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(status = ? AND age >= ?) AND (name LIKE ? OR name LIKE ?) AND (NOT (role = ?))")
			So(args, ShouldResemble, []any{"active", 18, "a%", "b%", "admin"})
		})

		Convey("MinShouldMatch", func() {
			two := 2
			q := &Bool{
				Should:         []Filter{Eq("a", 1), Eq("b", 2), Eq("c", 3)},
				MinShouldMatch: &two,
			}
			sql, args, err := q.ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "(CASE WHEN (a = ?) THEN 1 ELSE 0 END + CASE WHEN (b = ?) THEN 1 ELSE 0 END + CASE WHEN (c = ?) THEN 1 ELSE 0 END) >= ?")
			So(args, ShouldResemble, []any{1, 2, 3, 2})
		})

		Convey("空条件和嵌套", func() {
			sql, args, err := And().ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "")
			So(args, ShouldBeNil)

			sql, args, err = And(nil, &Range{Column: "age"}, Or(Eq("a", 1), Not(Eq("b", 2)))).ToSQL()
			So(err, ShouldBeNil)
			So(sql, ShouldEqual, "((a = ? OR (NOT (b = ?))))")
			So(args, ShouldResemble, []any{1, 2})
		})

		Convey("子条件出错", func() {
			_, _, err := Or(Eq("ok", 1), Eq("bad column", 2)).ToSQL()
			So(err, ShouldNotBeNil)
		})
	})
}
