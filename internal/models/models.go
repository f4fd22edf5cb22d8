package models

import (
	"time"
)

// Role is the single role a user holds.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Sender says who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// DefaultChatTitle is the title the client gives a chat before the
// first user message renames it.
const DefaultChatTitle = "Жаңа әңгіме"

// User is a row of the users table.
//
// Email is globally unique. Username is unique but nullable: only the
// bootstrap admin has one today.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     *string   `json:"username,omitempty"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Chat is a conversation owned by exactly one user.
//
// ChatID is chosen by the client and is unique across all users. The
// surrogate ID never leaves the server; the API exposes ChatID as "id".
type Chat struct {
	ID        int64     `json:"-"`
	ChatID    string    `json:"id"`
	UserID    int64     `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"timestamp"`
}

// Message is a single turn of a conversation.
//
// The schema does not tie ChatID to the chats table. The request
// pipeline checks that the chat belongs to UserID before inserting.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    string    `json:"-"`
	UserID    int64     `json:"-"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

// QueryStat is the write-only audit row kept for every user-authored
// message. Only the admin aggregates read it back.
type QueryStat struct {
	ID        int64
	UserID    int64
	QueryText string
	ChatID    string
	CreatedAt time.Time
}

// TopQuery is one entry of the most frequent query texts.
type TopQuery struct {
	QueryText string `json:"query_text"`
	Count     int64  `json:"query_count"`
}

// UsageStats is the admin dashboard summary.
type UsageStats struct {
	UserCount     int64      `json:"userCount"`
	QueryCount    int64      `json:"queryCount"`
	RecentQueries int64      `json:"recentQueries"`
	TopQueries    []TopQuery `json:"topQueries"`
}

// UserActivity is a non-admin user with their chat and message counts.
type UserActivity struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	ChatCount    int64     `json:"chat_count"`
	MessageCount int64     `json:"message_count"`
}

// DailyRegistrations counts sign-ups on one calendar date (YYYY-MM-DD).
type DailyRegistrations struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
