package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := New(KindAlreadyClosed, "lottery.CloseAndDraw", "lottery already closed")
	wrapped := fmt.Errorf("scheduler: %w", base)

	assert.Equal(t, KindAlreadyClosed, KindOf(base))
	assert.Equal(t, KindAlreadyClosed, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindAlreadyClosed))
	assert.False(t, Is(wrapped, KindNotFound))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, KindUnknown))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindPersistenceFailure, "op", nil))
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"with message", New(KindNotFound, "store.Get", "record not found"), "store.Get: record not found"},
		{"kind only", &Error{Kind: KindNoBallotsFound}, "no_ballots_found"},
		{"wrapped", Wrap(KindPersistenceFailure, "store.Insert", errors.New("disk full")), "store.Insert: persistence_failure: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "内部错误", Message(Wrap(KindPersistenceFailure, "op", errors.New("connection refused"))))
	assert.Equal(t, "内部错误", Message(errors.New("boom")))
	assert.Equal(t, "participant exists", Message(New(KindAlreadyExists, "op", "participant exists")))
}

func TestFieldsOf(t *testing.T) {
	inner := New(KindPersistenceFailure, "inner", "x").With("lottery_id", 3).With("stage", "inner")
	outer := (&Error{Kind: KindPersistenceFailure, Op: "outer", Err: inner}).With("stage", "outer")

	fields := FieldsOf(fmt.Errorf("ctx: %w", outer))
	assert.Equal(t, 3, fields["lottery_id"])
	assert.Equal(t, "outer", fields["stage"])
}
