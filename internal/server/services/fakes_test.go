package services

import (
	"context"
	"strings"
	"sync"

	"github.com/avealov/rulehub/internal/logging"
)

// fakeHasher hashes by prefixing, keeping tests fast and hashes inspectable.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Check(password, hash string) bool     { return hash == "hashed:"+password }

// fakeMailer records outgoing messages.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

type nopLogger struct{}

func (nopLogger) Info(_ context.Context, _ string, _ ...any)  {}
func (nopLogger) Warn(_ context.Context, _ string, _ ...any)  {}
func (nopLogger) Error(_ context.Context, _ string, _ ...any) {}
func (l nopLogger) With(_ ...any) logging.Logger              { return l }

// extractQueryToken pulls the token value out of a mailed link, e.g.
// ".../verify-email?token=abc" or ".../reset-password?token=abc\n...".
func extractQueryToken(body string) string {
	_, after, ok := strings.Cut(body, "token=")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(after, "\n "); i >= 0 {
		return after[:i]
	}
	return after
}

// extractResetCode pulls the numeric code out of a reset mail body.
func extractResetCode(body string) string {
	_, after, ok := strings.Cut(body, "the code: ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}
