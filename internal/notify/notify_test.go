package notify

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	SlogNotifier{Logger: logger}.Notify(SlowRequest)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "Request taking longer than expected")
}

func TestFunc(t *testing.T) {
	var got []Notice
	n := Func(func(x Notice) { got = append(got, x) })
	n.Notify(InvalidLinkParams)
	Discard.Notify(InvalidLinkParams)

	assert.Equal(t, []Notice{InvalidLinkParams}, got)
}
