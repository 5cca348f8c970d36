package orm_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hatlonely/sqlorm/log"
	"github.com/hatlonely/sqlorm/orm"
	"github.com/hatlonely/sqlorm/sqlconn"
)

type Author struct {
	ID   int    `rdb:"id,auto"`
	Name string `rdb:"name,notnull"`
}

func (Author) TableName() string { return "authors" }

type Book struct {
	ID     int     `rdb:"id,auto"`
	Title  string  `rdb:"title"`
	Author *Author `rdb:"author_id,fk"`
}

func (Book) TableName() string { return "books" }

func Example() {
	dir, _ := os.MkdirTemp("", "sqlorm")
	defer os.RemoveAll(dir)

	db, err := orm.NewWithOptions(&orm.Options{
		Database: sqlconn.SQLOptions{Driver: "sqlite3", Database: filepath.Join(dir, "example.db")},
		Logger:   log.Options{Output: "discard"},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer db.Close()

	ctx := context.Background()
	authors, _ := orm.Register[Author](ctx, db.Registry, db.Conn())
	books, _ := orm.Register[Book](ctx, db.Registry, db.Conn())
	fmt.Println(books.Definition().BuildCreateTable())

	author := &Author{Name: "Lu Xun"}
	_ = authors.Insert(ctx, author)
	_ = books.Insert(ctx, &Book{Title: "Call to Arms", Author: author})

	selected, _ := books.SelectAll(ctx)
	for _, b := range selected {
		fmt.Println(b.ID, b.Title, b.Author.Name)
	}
	// Output:
	// CREATE TABLE IF NOT EXISTS books(id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT, author_id INTEGER, FOREIGN KEY (author_id) REFERENCES authors(id))
	// 1 Call to Arms Lu Xun
}
