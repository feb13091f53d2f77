package template

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/meta"
)

var allDialects = []dialect.Descriptor{
	dialect.MySQL, dialect.SQLServer, dialect.PostgreSQL,
	dialect.Oracle, dialect.DB2, dialect.SQLite,
}

func usersTable() *meta.Table {
	return meta.NewTable("users",
		meta.Column{Name: "id", Type: meta.TypeInt, Key: true},
		meta.Column{Name: "name", Type: meta.TypeString},
		meta.Column{Name: "email", Type: meta.TypeString, Nullable: true},
	)
}

func peopleTable() *meta.Table {
	return meta.NewTable("people",
		meta.Column{Name: "id", Type: meta.TypeInt, Key: true},
		meta.Column{Name: "full_name", Property: "name", Type: meta.TypeString},
		meta.Column{Name: "age", Type: meta.TypeInt},
		meta.Column{Name: "active", Type: meta.TypeBool},
	)
}

func ctxFor(d dialect.Descriptor, t *meta.Table) Context {
	return NewContext(d, t)
}

// render prepares and renders text, failing the test on error.
func render(t *testing.T, text string, ctx Context, b Bindings) *Rendered {
	t.Helper()
	r, err := PrepareAndRender(text, ctx, b)
	require.NoError(t, err)
	return r
}

// renderSQL returns only the SQL of render.
func renderSQL(t *testing.T, text string, ctx Context, b Bindings) string {
	t.Helper()
	return render(t, text, ctx, b).SQL
}

// prepareErr prepares text and returns the error, failing if there is none.
func prepareErr(t *testing.T, text string, ctx Context) error {
	t.Helper()
	_, err := Prepare(text, ctx)
	require.Error(t, err)
	return err
}
