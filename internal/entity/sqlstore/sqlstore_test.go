package sqlstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/conduit-lang/projector/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		query    entity.Query
		wantSQL  string
		wantArgs int
		wantErr  bool
	}{
		{
			name:    "table only",
			query:   entity.Query{Type: "user", Table: "xf_user"},
			wantSQL: `SELECT * FROM "xf_user"`,
		},
		{
			name: "conditions order and limit",
			query: entity.Query{
				Type:  "attachment",
				Table: "xf_attachment",
				Conditions: []entity.Condition{
					{Field: "content_id", Values: []interface{}{1, 2}},
					{Field: "content_type", Values: []interface{}{"conversation_message"}},
				},
				OrderBy: "attach_date desc, attachment_id",
				Limit:   5,
			},
			wantSQL:  `SELECT * FROM "xf_attachment" WHERE "content_id" = ANY($1) AND "content_type" = ANY($2) ORDER BY "attach_date" DESC, "attachment_id" LIMIT 5`,
			wantArgs: 2,
		},
		{
			name:    "invalid direction",
			query:   entity.Query{Table: "xf_user", OrderBy: "user_id; DROP TABLE xf_user"},
			wantErr: true,
		},
		{
			name:    "missing table",
			query:   entity.Query{Type: "ghost"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := Build(tt.query)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestBackend_Select(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"message_id", "message"}).
		AddRow(int64(10), []byte("hello")).
		AddRow(int64(11), []byte("world"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "xf_conversation_message" WHERE "message_id" = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := New(db).Select(context.Background(), entity.Query{
		Table:      "xf_conversation_message",
		Conditions: []entity.Condition{{Field: "message_id", Values: []interface{}{10, 11}}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(10), got[0]["message_id"])
	assert.Equal(t, "world", got[1]["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_SelectError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err = New(db).Select(context.Background(), entity.Query{Table: "xf_user"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestBackend_WithStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	schema := entity.NewSchema(&entity.TypeSchema{Type: "user", Table: "xf_user", PrimaryKey: []string{"user_id"}})
	store := entity.NewStore(schema, New(db))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "xf_user" WHERE "user_id" = ANY($1) ORDER BY "user_id"`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username"}).AddRow(int64(1), "alice"))

	users, err := store.Finder("user").Where("user_id", 1).Order("user_id").Fetch(context.Background(), entity.NewGraph())
	require.NoError(t, err)
	require.Equal(t, 1, users.Len())
	assert.Equal(t, "alice", users.First().String("username"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
