package util

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuizNotPublished     = errors.New("quiz not published or not accessible")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAttemptLimitExceeded = errors.New("maximum number of attempts reached")
	ErrMalformedSubmission  = errors.New("submission does not match the quiz")
)
