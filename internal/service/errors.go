// Package service holds the request pipeline between HTTP handlers and
// the repositories. Every operation that touches user data receives an
// auth.Identity and branches on it explicitly.
package service

import (
	"errors"
	"fmt"

	"github.com/barysai/barysai/internal/repository"
)

var (
	ErrEmailTaken         = fmt.Errorf("user with this email already exists: %w", repository.ErrDuplicate)
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrChatNotFound covers missing chats, chats owned by someone else and
	// every chat operation attempted by a guest.
	ErrChatNotFound = fmt.Errorf("chat %w", repository.ErrNotFound)
	ErrChatExists   = fmt.Errorf("chat %w", repository.ErrDuplicate)

	ErrAssistantUnavailable = errors.New("assistant unavailable")
)
