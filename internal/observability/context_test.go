package observability

import (
	"context"
	"regexp"
	"testing"
)

var uuidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestWithOpID_SetsUUIDv4(t *testing.T) {
	ctx := WithOpID(context.Background())
	id := OpID(ctx)

	if !uuidRe.MatchString(id) {
		t.Errorf("OpID() = %q, want a UUID v4", id)
	}
}

func TestOpID_EmptyWithoutWithOpID(t *testing.T) {
	if got := OpID(context.Background()); got != "" {
		t.Errorf("OpID() = %q, want empty string", got)
	}
}

func TestWithOpID_UniquePerCall(t *testing.T) {
	a := OpID(WithOpID(context.Background()))
	b := OpID(WithOpID(context.Background()))
	if a == b {
		t.Errorf("two calls to WithOpID produced the same id %q", a)
	}
}
