package domain

import "errors"

var (
	ErrAuthorizationDenied = errors.New("notification authorization denied")
	ErrEmptyTitle          = errors.New("request title is empty")
	ErrEmptyBody           = errors.New("request body is empty")
	ErrPastDate            = errors.New("scheduled date is in the past")
	ErrRequestNotFound     = errors.New("schedule request not found")
	ErrTaskNotFound        = errors.New("background task not found")
	ErrInvalidReminderType = errors.New("invalid reminder type")
)
