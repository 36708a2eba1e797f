package chat

import "errors"

var (
	// ErrUpstreamModel marks a failed retrieval or language model call.
	// The question's user turn stays in the history.
	ErrUpstreamModel = errors.New("language model request failed")
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question is empty")
)
