package dao

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/sukryu/pStore/internal/store/entity"
	"github.com/sukryu/pStore/internal/store/query"
	"github.com/sukryu/pStore/internal/store/schema"
	"github.com/sukryu/pStore/pkg/errors"
)

func authorsDescriptor() *schema.TableDescriptor {
	return &schema.TableDescriptor{
		Name:  "authors",
		Alias: "authors",
		Columns: []schema.ColumnDef{
			{Name: "id", Field: "id", Type: schema.FieldTypeInteger, PrimaryKey: true},
			{Name: "name", Field: "name", Type: schema.FieldTypeString},
			{Name: "email", Field: "email", Type: schema.FieldTypeString, Nullable: true},
		},
	}
}

func booksDescriptor() *schema.TableDescriptor {
	return &schema.TableDescriptor{
		Name:  "books",
		Alias: "books",
		Columns: []schema.ColumnDef{
			{Name: "id", Field: "id", Type: schema.FieldTypeString, PrimaryKey: true},
			{Name: "title", Field: "title", Type: schema.FieldTypeString},
			{Name: "author_id", Field: "authorId", Type: schema.FieldTypeInteger},
			{Name: "pages", Field: "pages", Type: schema.FieldTypeInteger, Nullable: true},
		},
		ForeignKeys: []schema.ForeignKey{
			{Column: "author_id", ParentTable: "authors", ParentColumn: "id"},
		},
	}
}

// recordingExecutor wraps the real engine and records the storage calls
// the DAO issues, so tests can assert on call presence and ordering.
type recordingExecutor struct {
	inner Executor
	calls []string
}

func (r *recordingExecutor) reset() {
	r.calls = nil
}

func (r *recordingExecutor) Select(ctx context.Context, table *schema.TableDescriptor, where *query.Condition, params query.Params) (query.ResultSet, error) {
	r.calls = append(r.calls, "select")
	return r.inner.Select(ctx, table, where, params)
}

func (r *recordingExecutor) Insert(ctx context.Context, table *schema.TableDescriptor, res entity.Resource) (interface{}, error) {
	r.calls = append(r.calls, "insert")
	return r.inner.Insert(ctx, table, res)
}

func (r *recordingExecutor) InsertBulk(ctx context.Context, table *schema.TableDescriptor, items []entity.Resource) ([]entity.Resource, error) {
	r.calls = append(r.calls, "insertBulk")
	return r.inner.InsertBulk(ctx, table, items)
}

func (r *recordingExecutor) Update(ctx context.Context, table *schema.TableDescriptor, values entity.Resource, where *query.Condition, params query.Params) (int64, error) {
	r.calls = append(r.calls, "update")
	return r.inner.Update(ctx, table, values, where, params)
}

func (r *recordingExecutor) Delete(ctx context.Context, table *schema.TableDescriptor, where *query.Condition, params query.Params) (int64, error) {
	r.calls = append(r.calls, "delete")
	return r.inner.Delete(ctx, table, where, params)
}

func (r *recordingExecutor) Exists(ctx context.Context, table *schema.TableDescriptor, id interface{}) (bool, error) {
	r.calls = append(r.calls, "exists")
	return r.inner.Exists(ctx, table, id)
}

type fixture struct {
	rec      *recordingExecutor
	registry *schema.Registry
	authors  *GenericDAO
	books    *GenericDAO
}

func setupDAO(t *testing.T) *fixture {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// Every pooled connection to :memory: is a distinct database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	tm := schema.NewTableManager(db)
	if err := tm.CreateTable(ctx, authorsDescriptor()); err != nil {
		t.Fatalf("failed to create authors table: %v", err)
	}
	if err := tm.CreateTable(ctx, booksDescriptor()); err != nil {
		t.Fatalf("failed to create books table: %v", err)
	}

	registry := schema.NewRegistry()
	if err := registry.Register(authorsDescriptor()); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(booksDescriptor()); err != nil {
		t.Fatal(err)
	}

	rec := &recordingExecutor{inner: query.NewEngine(db)}
	authors, err := New(rec, registry, "authors")
	if err != nil {
		t.Fatal(err)
	}
	books, err := New(rec, registry, "books")
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{rec: rec, registry: registry, authors: authors, books: books}
}

func (f *fixture) seedAuthor(t *testing.T, name string) interface{} {
	t.Helper()
	res, err := f.authors.Create(context.Background(), entity.Resource{"name": name})
	if err != nil {
		t.Fatalf("failed to seed author: %v", err)
	}
	return res["id"]
}

func TestGenericDAO_New(t *testing.T) {
	f := setupDAO(t)

	_, err := New(f.rec, f.registry, "missing")
	assert.Error(t, err)
}

func TestGenericDAO_Create(t *testing.T) {
	f := setupDAO(t)
	ctx := context.Background()

	t.Run("attaches generated identifier in place", func(t *testing.T) {
		res := entity.Resource{"name": "Frank Herbert"}
		created, err := f.authors.Create(ctx, res)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, res["id"])
		assert.Equal(t, reflect.ValueOf(res).Pointer(), reflect.ValueOf(created).Pointer(),
			"create resolves with the caller's resource")
	})

	t.Run("missing required field fails with no storage calls", func(t *testing.T) {
		f.rec.reset()
		_, err := f.authors.Create(ctx, entity.Resource{})
		assert.True(t, errors.IsValidation(err))
		assert.Empty(t, f.rec.calls)
	})

	t.Run("round trip by attached identifier", func(t *testing.T) {
		res := entity.Resource{"name": "Ursula Le Guin", "email": "ule@example.com"}
		_, err := f.authors.Create(ctx, res)
		assert.NoError(t, err)

		got, err := f.authors.RetrieveByID(ctx, res["id"])
		assert.NoError(t, err)
		assert.EqualValues(t, res["id"], got["id"])
		assert.Equal(t, res["name"], got["name"])
		assert.Equal(t, res["email"], got["email"])
	})

	t.Run("dangling foreign key rejected", func(t *testing.T) {
		_, err := f.books.Create(ctx, entity.Resource{"title": "Orphan", "authorId": int64(99)})
		assert.True(t, errors.IsValidation(err))
	})
}

func TestGenericDAO_CreateIf(t *testing.T) {
	f := setupDAO(t)
	ctx := context.Background()

	t.Run("condition failure propagates unchanged and blocks insert", func(t *testing.T) {
		sentinel := fmt.Errorf("not allowed")
		f.rec.reset()
		_, err := f.authors.CreateIf(ctx, entity.Resource{"name": "X"}, func(context.Context, entity.Resource) error {
			return sentinel
		})
		assert.Equal(t, sentinel, err)
		assert.NotContains(t, f.rec.calls, "insert")
	})

	t.Run("condition never invoked on invalid input", func(t *testing.T) {
		invoked := false
		_, err := f.authors.CreateIf(ctx, entity.Resource{}, func(context.Context, entity.Resource) error {
			invoked = true
			return nil
		})
		assert.True(t, errors.IsValidation(err))
		assert.False(t, invoked)
	})

	t.Run("condition success proceeds to insert", func(t *testing.T) {
		res, err := f.authors.CreateIf(ctx, entity.Resource{"name": "Y"}, func(ctx context.Context, r entity.Resource) error {
			return nil
		})
		assert.NoError(t, err)
		assert.NotNil(t, res["id"])
	})
}

func TestGenericDAO_Retrieve(t *testing.T) {
	f := setupDAO(t)
	ctx := context.Background()
	f.seedAuthor(t, "Frank Herbert")
	f.seedAuthor(t, "Ursula Le Guin")

	t.Run("unrestricted", func(t *testing.T) {
		all, err := f.authors.Retrieve(ctx, nil, nil)
		assert.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("no matches yields empty sequence, not an error", func(t *testing.T) {
		got, err := f.authors.Retrieve(ctx, query.Eq("name", "n"), query.Params{"n": "Nobody"})
		assert.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("parameter validation precedes execution", func(t *testing.T) {
		f.rec.reset()
		_, err := f.authors.Retrieve(ctx, query.Eq("name", "n"), query.Params{"n": 42})
		assert.True(t, errors.IsValidation(err))
		assert.Empty(t, f.rec.calls)
	})

	t.Run("missing placeholder rejected before execution", func(t *testing.T) {
		f.rec.reset()
		_, err := f.authors.Retrieve(ctx, query.Eq("name", "n"), nil)
		assert.True(t, errors.IsValidation(err))
		assert.Empty(t, f.rec.calls)
	})
}

func TestGenericDAO_RetrieveSingle(t *testing.T) {
	f := setupDAO(t)
	ctx := context.Background()
	f.seedAuthor(t, "Frank Herbert")
	f.seedAuthor(t, "Ursula Le Guin")

	t.Run("returns first of many", func(t *testing.T) {
		got, err := f.authors.RetrieveSingle(ctx, nil, nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, "Frank Herbert", got["name"])
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.authors.RetrieveSingle(ctx, query.Eq("name", "n"), query.Params{"n": "Nobody"}, nil)
		assert.True(t, errors.IsNotFound(err))
		assert.EqualError(t, err, "Resource not found.")
	})

	t.Run("hook replaces the default error", func(t *testing.T) {
		custom := fmt.Errorf("no such author")
		_, err := f.authors.RetrieveSingle(ctx, query.Eq("name", "n"), query.Params{"n": "Nobody"},
			func(def error) error {
				assert.True(t, errors.IsNotFound(def))
				return custom
			})
		assert.Equal(t, custom, err)
	})

	t.Run("hook returning nil cannot suppress the failure", func(t *testing.T) {
		_, err := f.authors.RetrieveSingle(ctx, query.Eq("name", "n"), query.Params{"n": "Nobody"},
			func(error) error { return nil })
		assert.True(t, errors.IsNotFound(err))
		assert.EqualError(t, err, "Resource not found.")
	})
}

func TestGenericDAO_RetrieveByID(t *testing.T) {
	f := setupDAO(t)
	ctx := context.Background()
	id := f.seedAuthor(t, "Frank Herbert")

	got, err := f.authors.RetrieveByID(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, "Frank Herbert", got["name"])

	t.Run("not found names the key", func(t *testing.T) {
		_, err := f.authors.RetrieveByID(ctx, int64(99))
		assert.True(t, errors.IsNotFound(err))
		assert.EqualError(t, err, "Invalid id.")
	})

	t.Run("identifier type is validated", func(t *testing.T) {
		_, err := f.authors.RetrieveByID(ctx, "not-an-integer")
		assert.True(t, errors.IsValidation(err))
	})
}

func TestGenericDAO_IsUnique(t *testing.T) {
	f := setupDAO(t)
	ctx := context.Background()
	id := f.seedAuthor(t, "Frank Herbert")

	t.Run("unique when no rows match", func(t *testing.T) {
		unique, err := f.authors.IsUnique(ctx, query.Eq("name", "n"), query.Params{"n": "Nobody"}, nil)
		assert.NoError(t, err)
		assert.True(t, unique)
	})

	t.Run("duplicate carries the first match's key", func(t *testing.T) {
		unique, err := f.authors.IsUnique(ctx, query.Eq("name", "n"), query.Params{"n": "Frank Herbert"}, nil)
		assert.False(t, unique)
		dupe, ok := err.(*errors.DuplicateError)
		if assert.True(t, ok) {
			assert.EqualValues(t, id, dupe.ID)
		}
	})

	t.Run("hook replaces the default error", func(t *testing.T) {
		custom := fmt.Errorf("name taken")
		_, err := f.authors.IsUnique(ctx, query.Eq("name", "n"), query.Params{"n": "Frank Herbert"},
			func(def error) error {
				assert.True(t, errors.IsDuplicate(def))
				return custom
			})
		assert.Equal(t, custom, err)
	})

	t.Run("hook returning nil cannot suppress the failure", func(t *testing.T) {
		unique, err := f.authors.IsUnique(ctx, query.Eq("name", "n"), query.Params{"n": "Frank Herbert"},
			func(error) error { return nil })
		assert.False(t, unique)
		assert.True(t, errors.IsDuplicate(err))
	})
}

func TestGenericDAO_Update(t *testing.T) {
	f := setupDAO(t)
	ctx := context.Background()
	id := f.seedAuthor(t, "Frank Herbert")

	t.Run("one affected row resolves with the resource", func(t *testing.T) {
		res := entity.Resource{"id": id, "name": "Franklin Herbert"}
		updated, err := f.authors.Update(ctx, res)
		assert.NoError(t, err)
		assert.Equal(t, reflect.ValueOf(res).Pointer(), reflect.ValueOf(updated).Pointer())

		got, err := f.authors.RetrieveByID(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, "Franklin Herbert", got["name"])
	})

	t.Run("zero affected rows is not found", func(t *testing.T) {
		_, err := f.authors.Update(ctx, entity.Resource{"id": int64(99), "name": "Ghost"})
		assert.True(t, errors.IsNotFound(err))
		assert.EqualError(t, err, "Resource not found.")
	})

	t.Run("missing key fails validation with no storage calls", func(t *testing.T) {
		f.rec.reset()
		_, err := f.authors.Update(ctx, entity.Resource{"name": "Keyless"})
		assert.True(t, errors.IsValidation(err))
		assert.Empty(t, f.rec.calls)
	})

	t.Run("condition failure blocks the update", func(t *testing.T) {
		sentinel := fmt.Errorf("stale")
		f.rec.reset()
		_, err := f.authors.UpdateIf(ctx, entity.Resource{"id": id, "name": "Other"},
			func(context.Context, entity.Resource) error { return sentinel })
		assert.Equal(t, sentinel, err)
		assert.NotContains(t, f.rec.calls, "update")
	})
}

// countingStub reports a fixed affected-row count for by-key mutations.
type countingStub struct {
	Executor
	affected int64
}

func (s *countingStub) Update(context.Context, *schema.TableDescriptor, entity.Resource, *query.Condition, query.Params) (int64, error) {
	return s.affected, nil
}

func (s *countingStub) Delete(context.Context, *schema.TableDescriptor, *query.Condition, query.Params) (int64, error) {
	return s.affected, nil
}

func TestGenericDAO_AffectedRowInvariant(t *testing.T) {
	f := setupDAO(t)
	ctx := context.Background()

	stub := &countingStub{Executor: f.rec, affected: 2}
	d, err := New(stub, f.registry, "authors")
	assert.NoError(t, err)

	_, err = d.Update(ctx, entity.Resource{"id": int64(1), "name": "X"})
	assert.Error(t, err)
	assert.False(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "affected 2 rows")

	_, err = d.Delete(ctx, entity.Resource{"id": int64(1)})
	assert.Error(t, err)
	assert.False(t, errors.IsNotFound(err))
}

func TestGenericDAO_Delete(t *testing.T) {
	f := setupDAO(t)
	ctx := context.Background()
	id := f.seedAuthor(t, "Frank Herbert")

	t.Run("deletes by key", func(t *testing.T) {
		res := entity.Resource{"id": id}
		got, err := f.authors.Delete(ctx, res)
		assert.NoError(t, err)
		assert.Equal(t, reflect.ValueOf(res).Pointer(), reflect.ValueOf(got).Pointer())

		_, err = f.authors.RetrieveByID(ctx, id)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("second delete is not found", func(t *testing.T) {
		_, err := f.authors.Delete(ctx, entity.Resource{"id": id})
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("missing key fails validation with no storage calls", func(t *testing.T) {
		f.rec.reset()
		_, err := f.authors.Delete(ctx, entity.Resource{})
		assert.True(t, errors.IsValidation(err))
		assert.Empty(t, f.rec.calls)
	})
}

func TestGenericDAO_Replace(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed parent identifier fails before any mutation", func(t *testing.T) {
		f := setupDAO(t)
		f.seedAuthor(t, "Frank Herbert")

		f.rec.reset()
		_, err := f.books.Replace(ctx, "authors", "not-an-integer", []entity.Resource{
			{"title": "Dune"},
		})
		verr, ok := err.(*errors.ValidationError)
		if assert.True(t, ok) {
			assert.Equal(t, "id", verr.Fields[0].Field)
		}
		assert.Empty(t, f.rec.calls)
	})

	t.Run("invalid item leaves existing children untouched", func(t *testing.T) {
		f := setupDAO(t)
		id := f.seedAuthor(t, "Frank Herbert")
		_, err := f.books.Create(ctx, entity.Resource{"title": "Old", "authorId": id})
		assert.NoError(t, err)

		f.rec.reset()
		_, err = f.books.Replace(ctx, "authors", id, []entity.Resource{{}})
		verr, ok := err.(*errors.ValidationError)
		if assert.True(t, ok) {
			assert.Equal(t, "resources[0].title", verr.Fields[0].Field)
		}
		assert.NotContains(t, f.rec.calls, "delete")
		assert.NotContains(t, f.rec.calls, "insertBulk")

		remaining, err := f.books.Retrieve(ctx, query.Eq("authorId", "a"), query.Params{"a": id})
		assert.NoError(t, err)
		assert.Len(t, remaining, 1)
		assert.Equal(t, "Old", remaining[0]["title"])
	})

	t.Run("aggregates item errors instead of short-circuiting", func(t *testing.T) {
		f := setupDAO(t)
		id := f.seedAuthor(t, "Frank Herbert")

		_, err := f.books.Replace(ctx, "authors", id, []entity.Resource{
			{},
			{"title": 42},
		})
		verr, ok := err.(*errors.ValidationError)
		if assert.True(t, ok) {
			fields := make([]string, len(verr.Fields))
			for i, fe := range verr.Fields {
				fields[i] = fe.Field
			}
			assert.Equal(t, []string{"resources[0].title", "resources[1].title"}, fields)
		}
	})

	t.Run("deletes then bulk inserts the validated set", func(t *testing.T) {
		f := setupDAO(t)
		id := f.seedAuthor(t, "Frank Herbert")
		old, err := f.books.Create(ctx, entity.Resource{"title": "Old", "authorId": id})
		assert.NoError(t, err)

		item := entity.Resource{"id": "stale-id", "title": "New", "authorId": int64(999)}
		f.rec.reset()
		inserted, err := f.books.Replace(ctx, "authors", id, []entity.Resource{item})
		assert.NoError(t, err)
		assert.Equal(t, []string{"exists", "delete", "insertBulk"}, f.rec.calls)

		assert.Len(t, inserted, 1)
		assert.EqualValues(t, id, inserted[0]["authorId"], "foreign key overwritten with parent key")
		assert.NotEqual(t, "stale-id", inserted[0]["id"], "prior identifier discarded")
		assert.NotEmpty(t, inserted[0]["id"])

		_, err = f.books.RetrieveByID(ctx, old["id"])
		assert.True(t, errors.IsNotFound(err))

		current, err := f.books.Retrieve(ctx, query.Eq("authorId", "a"), query.Params{"a": id})
		assert.NoError(t, err)
		assert.Len(t, current, 1)
		assert.Equal(t, "New", current[0]["title"])
	})

	t.Run("empty set clears all children", func(t *testing.T) {
		f := setupDAO(t)
		id := f.seedAuthor(t, "Frank Herbert")
		_, err := f.books.Create(ctx, entity.Resource{"title": "Old", "authorId": id})
		assert.NoError(t, err)

		inserted, err := f.books.Replace(ctx, "authors", id, nil)
		assert.NoError(t, err)
		assert.Empty(t, inserted)

		remaining, err := f.books.Retrieve(ctx, query.Eq("authorId", "a"), query.Params{"a": id})
		assert.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("relationship count mismatch is a configuration error", func(t *testing.T) {
		f := setupDAO(t)
		_, err := f.authors.Replace(ctx, "books", "some-book", nil)
		assert.True(t, errors.IsConfig(err))
	})

	t.Run("unknown parent table", func(t *testing.T) {
		f := setupDAO(t)
		_, err := f.books.Replace(ctx, "publishers", int64(1), nil)
		assert.Error(t, err)
	})
}
