package service

// BadRequestError marks a failure caused by the request itself, so handlers
// answer 400 instead of 500. Repository and infrastructure errors are never
// wrapped in it.
type BadRequestError struct {
	Err error
}

func (e *BadRequestError) Error() string { return e.Err.Error() }

func (e *BadRequestError) Unwrap() error { return e.Err }

func badRequest(err error) error {
	return &BadRequestError{Err: err}
}
