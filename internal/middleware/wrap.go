package middleware

import "net/http"

// ResponseRecorder wraps ResponseWriter, captures the status code and
// runs an optional hook right before the first byte or header goes out.
type ResponseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wrote       bool
	beforeWrite func(http.ResponseWriter)
}

func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	if rr, ok := w.(*ResponseRecorder); ok {
		return rr
	}
	return &ResponseRecorder{ResponseWriter: w, status: http.StatusOK}
}

// SetBeforeWrite registers fn to run once before headers are flushed.
// Hooks chain, so nested middlewares can each register one.
func (rw *ResponseRecorder) SetBeforeWrite(fn func(http.ResponseWriter)) {
	prev := rw.beforeWrite
	if prev == nil {
		rw.beforeWrite = fn
		return
	}
	rw.beforeWrite = func(w http.ResponseWriter) {
		prev(w)
		fn(w)
	}
}

func (rw *ResponseRecorder) flushHook() {
	if rw.wrote {
		return
	}
	rw.wrote = true
	if rw.beforeWrite != nil {
		rw.beforeWrite(rw.ResponseWriter)
	}
}

func (rw *ResponseRecorder) WriteHeader(statusCode int) {
	rw.flushHook()
	rw.status = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseRecorder) Write(b []byte) (int, error) {
	rw.flushHook()
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *ResponseRecorder) Status() int { return rw.status }

// Written reports whether headers have been sent.
func (rw *ResponseRecorder) Written() bool { return rw.wrote }

// BytesWritten reports the response body size.
func (rw *ResponseRecorder) BytesWritten() int { return rw.bytes }

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *ResponseRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
