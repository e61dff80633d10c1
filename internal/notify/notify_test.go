package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_, ok := r.Last()
	assert.False(t, ok)

	r.Notify(KindSuccess, "Saved", "")
	r.Notify(KindError, "Submit failed", "backend unavailable")

	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, Notification{Kind: KindError, Message: "Submit failed", Description: "backend unavailable"}, last)
	assert.Len(t, r.All(), 2)

	r.Reset()
	assert.Empty(t, r.All())
}

func TestMultiAndFunc(t *testing.T) {
	r := &Recorder{}
	var kinds []Kind
	m := Multi{r, nil, Func(func(k Kind, _, _ string) { kinds = append(kinds, k) }), Discard{}, Log{}}

	m.Notify(KindInfo, "hello", "world")

	assert.Len(t, r.All(), 1)
	assert.Equal(t, []Kind{KindInfo}, kinds)
}
