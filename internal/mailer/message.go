// Package mailer implements best-effort asynchronous email delivery: an
// unbounded in-memory queue drained by a single background worker that
// retries each message a bounded number of times. Messages that exhaust
// their retry budget are logged and dropped; the queue is not persisted,
// so undelivered mail is lost on process restart.
package mailer

// Message is one email send request. Immutable once constructed; the
// body may contain HTML.
type Message struct {
	To      string
	Subject string
	Body    string
}
