package error

import "net/http"

// StorageError wraps persistence failures. It is fatal to the single
// operation that hit it, never to the process.
type StorageError string

func (err StorageError) Error() string {
	return string(err)
}

func (err StorageError) ErrCode() string {
	return "STORAGE_ERROR"
}

func (err StorageError) StatusCode() int {
	return http.StatusInternalServerError
}
