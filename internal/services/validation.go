package services

// ValidationError reports missing or mismatched sign-in, sign-up or
// intake fields. It is always recoverable: the caller re-prompts and
// no persisted state has changed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationError(message string) error {
	return &ValidationError{Message: message}
}
