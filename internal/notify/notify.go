// Package notify delivers submission notifications. Delivery is
// fire-and-forget from the store's point of view: a failed notification is
// logged by the caller and never fails the write that triggered it.
package notify

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// EmailNotifier formats a partnership-inquiry email for a submission. Actual
// delivery is handled outside this process; the formatted message is written
// to out so an operator (or a mail relay tailing the log) can pick it up.
type EmailNotifier struct {
	enabled   bool
	recipient string
	out       io.Writer
}

// NewEmailNotifier creates a notifier addressed to recipient. When enabled
// is false every notification is a no-op.
func NewEmailNotifier(enabled bool, recipient string) *EmailNotifier {
	return &EmailNotifier{enabled: enabled, recipient: recipient, out: os.Stdout}
}

// NewEmailNotifierWithWriter creates a notifier with a custom output writer
// for testability.
func NewEmailNotifierWithWriter(enabled bool, recipient string, out io.Writer) *EmailNotifier {
	return &EmailNotifier{enabled: enabled, recipient: recipient, out: out}
}

func (n *EmailNotifier) NotifySubmission(id int64, fields map[string]string, submittedAt time.Time) error {
	if !n.enabled {
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "To: %s\n", n.recipient)
	fmt.Fprintf(&msg, "Subject: New partnership inquiry #%d\n\n", id)

	// Stable field order so the output is diffable.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&msg, "%s: %s\n", k, fields[k])
	}
	fmt.Fprintf(&msg, "\nSubmitted: %s\n", submittedAt.Format(time.RFC1123))

	if _, err := fmt.Fprint(n.out, msg.String()); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}
