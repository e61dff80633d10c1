package dirty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prefs() Values {
	return Values{
		"email_statements": true,
		"sms_alerts":       false,
		"language":         "en",
	}
}

func TestNew_IsClean(t *testing.T) {
	s := New(prefs())
	assert.False(t, s.IsDirty())
	assert.Empty(t, s.DirtyFields())
	assert.Empty(t, s.Diff())
}

func TestNew_NilSaved(t *testing.T) {
	s := New(nil)
	assert.False(t, s.IsDirty())

	s.Set("nickname", "")
	assert.False(t, s.IsDirty(), "empty value on an unsaved field is not an edit")

	s.Set("nickname", "Joint checking")
	assert.True(t, s.IsDirty())
}

func TestIsDirty_MissingEqualsZero(t *testing.T) {
	tests := []struct {
		name  string
		saved Values
		field string
		edits []any
		dirty bool
	}{
		{name: "unsaved checkbox toggled back", field: "optIn", edits: []any{true, false}},
		{name: "saved empty cleared to nil", saved: Values{"nickname": ""}, field: "nickname", edits: []any{nil}},
		{name: "saved false cleared to nil", saved: Values{"optIn": false}, field: "optIn", edits: []any{nil}},
		{name: "unsaved checkbox left on", field: "optIn", edits: []any{true}, dirty: true},
		{name: "saved value cleared", saved: Values{"nickname": "Joint"}, field: "nickname", edits: []any{nil}, dirty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.saved)
			for _, v := range tt.edits {
				s.Set(tt.field, v)
			}
			assert.Equal(t, tt.dirty, s.IsDirty())
		})
	}
}

func TestSet_DifferentValueDirties(t *testing.T) {
	s := New(prefs())

	s.Set("sms_alerts", true)
	assert.True(t, s.IsDirty())
	assert.Equal(t, []string{"sms_alerts"}, s.DirtyFields())
}

func TestSet_SameValueStaysClean(t *testing.T) {
	s := New(prefs())

	s.Set("language", "en")
	assert.False(t, s.IsDirty(), "comparison is by value, not by edit count")
}

func TestSet_RevertingEditCleans(t *testing.T) {
	s := New(prefs())

	s.Set("language", "es")
	require.True(t, s.IsDirty())

	s.Set("language", "en")
	assert.False(t, s.IsDirty(), "dirty state is recomputed, not cached")
}

func TestIsDirty_ComparesByValue(t *testing.T) {
	s := New(Values{"channels": []string{"email", "sms"}})

	s.Set("channels", []string{"email", "sms"})
	assert.False(t, s.IsDirty(), "equal slices with different backing arrays are clean")

	s.Set("channels", []string{"email"})
	assert.True(t, s.IsDirty())
}

func TestCommit(t *testing.T) {
	s := New(prefs())
	s.Set("sms_alerts", true)

	s.Commit()

	assert.False(t, s.IsDirty())
	assert.Equal(t, true, s.Saved()["sms_alerts"])
}

func TestDiscard(t *testing.T) {
	s := New(prefs())
	s.Set("language", "fr")

	s.Discard()

	assert.False(t, s.IsDirty())
	assert.Equal(t, "en", s.GetString("language"))
}

func TestCommitThenEditIsIndependent(t *testing.T) {
	s := New(prefs())
	s.Set("language", "fr")
	s.Commit()

	s.Set("language", "de")
	assert.Equal(t, "fr", s.Saved()["language"], "saved snapshot must not alias live values")
	assert.True(t, s.IsDirty())
}

func TestLiveAndSavedReturnCopies(t *testing.T) {
	s := New(prefs())

	live := s.Live()
	live["language"] = "xx"
	saved := s.Saved()
	saved["language"] = "yy"

	assert.Equal(t, "en", s.GetString("language"))
	assert.False(t, s.IsDirty())
}

func TestReset(t *testing.T) {
	s := New(prefs())
	s.Set("language", "fr")

	s.Reset(Values{"language": "de"})

	assert.False(t, s.IsDirty())
	assert.Equal(t, "de", s.GetString("language"))
	assert.Nil(t, s.Get("sms_alerts"))
}

func TestGetters(t *testing.T) {
	s := New(prefs())
	assert.True(t, s.GetBool("email_statements"))
	assert.False(t, s.GetBool("language"), "wrong type yields zero value")
	assert.Equal(t, "", s.GetString("sms_alerts"))
}

func TestDiff(t *testing.T) {
	s := New(prefs())
	s.Set("language", "es")
	s.Set("paperless", true)

	diff := s.Diff()
	assert.Contains(t, diff, "--- saved")
	assert.Contains(t, diff, "+++ unsaved")
	assert.Contains(t, diff, "-language: en")
	assert.Contains(t, diff, "+language: es")
	assert.Contains(t, diff, "+paperless: true")
}
