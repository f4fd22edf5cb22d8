package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	chatCols    = []string{"id", "chat_id", "user_id", "title", "created_at"}
	messageCols = []string{"id", "chat_id", "user_id", "sender", "text", "created_at"}
	userCols    = []string{"id", "email", "username", "first_name", "last_name", "password", "role", "created_at"}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestUserStore_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("defaults role to user", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("a@b.kz", pgxmock.AnyArg(), "Aru", "Sadykova", "hash", "user").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(int64(1), "a@b.kz", (*string)(nil), "Aru", "Sadykova", "hash", "user", now))

		u, err := NewUserStore(mock).Create(ctx, repository.NewUser{
			Email: "a@b.kz", FirstName: "Aru", LastName: "Sadykova", PasswordHash: "hash",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, models.RoleUser, u.Role)
		assert.Nil(t, u.Username)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("a@b.kz", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "user").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := NewUserStore(mock).Create(ctx, repository.NewUser{Email: "a@b.kz"})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})
}

func TestUserStore_Lookups(t *testing.T) {
	ctx := context.Background()
	admin := "admin"

	t.Run("by email not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("nobody@b.kz").
			WillReturnError(pgx.ErrNoRows)

		_, err := NewUserStore(mock).GetByEmail(ctx, "nobody@b.kz")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("by id infrastructure error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(int64(5)).
			WillReturnError(errors.New("conn reset"))

		_, err := NewUserStore(mock).GetByID(ctx, 5)
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("admin by username", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE username = $1 AND role = $2")).
			WithArgs("admin", "admin").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(int64(1), "admin@barysai.kz", &admin, "Admin", "User", "hash", "admin", time.Now()))

		u, err := NewUserStore(mock).GetAdminByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.True(t, u.IsAdmin())
		require.NotNil(t, u.Username)
		assert.Equal(t, "admin", *u.Username)
	})
}

func TestChatStore_Create(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("inserts", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chats")).
			WithArgs("c1", int64(7), "Жаңа әңгіме", ts).
			WillReturnRows(pgxmock.NewRows(chatCols).AddRow(int64(1), "c1", int64(7), "Жаңа әңгіме", ts))

		ch, err := NewChatStore(mock).Create(ctx, 7, "c1", "Жаңа әңгіме", ts)
		require.NoError(t, err)
		assert.Equal(t, "c1", ch.ChatID)
		assert.Equal(t, ts, ch.CreatedAt)
	})

	t.Run("duplicate chat id", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chats")).
			WithArgs("c1", int64(7), "t", ts).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "chats_chat_id_key"})

		_, err := NewChatStore(mock).Create(ctx, 7, "c1", "t", ts)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})
}

func TestChatStore_ListByUser(t *testing.T) {
	ctx := context.Background()
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	t.Run("newest first", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows(chatCols).
				AddRow(int64(2), "c2", int64(7), "second", newer).
				AddRow(int64(1), "c1", int64(7), "first", older))

		chats, err := NewChatStore(mock).ListByUser(ctx, 7)
		require.NoError(t, err)
		require.Len(t, chats, 2)
		assert.Equal(t, "c2", chats[0].ChatID)
	})

	t.Run("empty is not nil", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM chats")).
			WithArgs(int64(8)).
			WillReturnRows(pgxmock.NewRows(chatCols))

		chats, err := NewChatStore(mock).ListByUser(ctx, 8)
		require.NoError(t, err)
		assert.NotNil(t, chats)
		assert.Empty(t, chats)
	})
}

func TestChatStore_UpdateTitle_NotOwned(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE chats SET title = $1")).
		WithArgs("new", "c1", int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewChatStore(mock).UpdateTitle(context.Background(), 9, "c1", "new")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestChatStore_Delete(t *testing.T) {
	ctx := context.Background()
	deleteChat := regexp.QuoteMeta("DELETE FROM chats WHERE chat_id = $1 AND user_id = $2")
	deleteMessages := regexp.QuoteMeta("DELETE FROM messages WHERE chat_id = $1")

	t.Run("commits chat and messages", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(deleteChat).WithArgs("c1", int64(7)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(deleteMessages).WithArgs("c1").WillReturnResult(pgxmock.NewResult("DELETE", 3))
		mock.ExpectCommit()

		require.NoError(t, NewChatStore(mock).Delete(ctx, 7, "c1"))
	})

	t.Run("not owned rolls back", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(deleteChat).WithArgs("c1", int64(8)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectRollback()

		err := NewChatStore(mock).Delete(ctx, 8, "c1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("message delete failure rolls back", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(deleteChat).WithArgs("c1", int64(7)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(deleteMessages).WithArgs("c1").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := NewChatStore(mock).Delete(ctx, 7, "c1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestMessageStore(t *testing.T) {
	ctx := context.Background()
	ts := time.Now()

	t.Run("create", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO messages")).
			WithArgs("c1", int64(7), "user", "Hello", ts).
			WillReturnRows(pgxmock.NewRows(messageCols).AddRow(int64(11), "c1", int64(7), "user", "Hello", ts))

		msg, err := NewMessageStore(mock).Create(ctx, 7, "c1", models.SenderUser, "Hello", ts)
		require.NoError(t, err)
		assert.Equal(t, int64(11), msg.ID)
		assert.Equal(t, models.SenderUser, msg.Sender)
	})

	t.Run("list ascending", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC, id ASC")).
			WithArgs("c1").
			WillReturnRows(pgxmock.NewRows(messageCols).
				AddRow(int64(1), "c1", int64(7), "user", "Hello", ts).
				AddRow(int64(2), "c1", int64(7), "bot", "Сәлем", ts.Add(time.Second)))

		msgs, err := NewMessageStore(mock).ListByChat(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, models.SenderBot, msgs[1].Sender)
	})
}

func TestQueryStatStore_Record(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO query_stats")).
		WithArgs(int64(7), "Hello", "c1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewQueryStatStore(mock).Record(context.Background(), 7, "c1", "Hello"))
}

func TestStatsStore_Usage(t *testing.T) {
	ctx := context.Background()
	since := time.Now().AddDate(0, 0, -30)

	t.Run("empty database", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = 'user'")).
			WithArgs(since).
			WillReturnRows(pgxmock.NewRows([]string{"users", "queries", "recent"}).AddRow(int64(0), int64(0), int64(0)))
		mock.ExpectQuery(regexp.QuoteMeta("GROUP BY query_text")).
			WithArgs(topQueriesLimit).
			WillReturnRows(pgxmock.NewRows([]string{"query_text", "query_count"}))

		stats, err := NewStatsStore(mock).Usage(ctx, since)
		require.NoError(t, err)
		assert.Zero(t, stats.UserCount)
		assert.Zero(t, stats.QueryCount)
		assert.Zero(t, stats.RecentQueries)
		assert.NotNil(t, stats.TopQueries)
		assert.Empty(t, stats.TopQueries)
	})

	t.Run("top queries", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM query_stats WHERE created_at >= $1")).
			WithArgs(since).
			WillReturnRows(pgxmock.NewRows([]string{"users", "queries", "recent"}).AddRow(int64(2), int64(5), int64(4)))
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY query_count DESC, query_text ASC")).
			WithArgs(topQueriesLimit).
			WillReturnRows(pgxmock.NewRows([]string{"query_text", "query_count"}).
				AddRow("Hello", int64(3)).
				AddRow("Сәлем", int64(2)))

		stats, err := NewStatsStore(mock).Usage(ctx, since)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.UserCount)
		assert.Equal(t, []models.TopQuery{{QueryText: "Hello", Count: 3}, {QueryText: "Сәлем", Count: 2}}, stats.TopQueries)
	})
}

func TestStatsStore_UserActivityAndRegistrations(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN chats c ON u.id = c.user_id")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "first_name", "last_name", "email", "created_at", "chat_count", "message_count"}).
			AddRow(int64(3), "Dana", "B", "d@b.kz", now, int64(0), int64(0)))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY DATE(created_at)")).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"date", "count"}).AddRow("2024-03-01", int64(2)))

	store := NewStatsStore(mock)

	users, err := store.UserActivity(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Zero(t, users[0].ChatCount)

	days, err := store.Registrations(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, []models.DailyRegistrations{{Date: "2024-03-01", Count: 2}}, days)
}
