package pipeline

import "errors"

// ErrInvalidURL rejects a syntactically invalid audio URL. Never retried.
var ErrInvalidURL = errors.New("audio url is not a valid http or https url")

// DownloadError wraps the final transport failure after retries are exhausted
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return "failed to download " + e.URL + ": " + e.Err.Error()
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// RecognitionError wraps the final recognition failure after retries are exhausted
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return "failed to recognize audio: " + e.Err.Error()
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// StorageError wraps a persistence failure. Always fatal to the request,
// never retried.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "failed to persist transcription: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
