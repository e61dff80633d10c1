package guard

import (
	"errors"
	"testing"

	"github.com/mark3labs/stepguard/internal/dirty"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tabs is a fake navigator over a set of tabs.
type tabs struct {
	current  Target
	history  []Target
	restored []Target
	fail     error
}

func (n *tabs) Navigate(to Target) error {
	if n.fail != nil {
		return n.fail
	}
	n.history = append(n.history, to)
	n.current = to
	return nil
}

func (n *tabs) Restore(from Target) error {
	n.restored = append(n.restored, from)
	n.current = from
	return nil
}

func newPrefs() *dirty.Snapshot {
	return dirty.New(dirty.Values{"emailOptIn": true, "frequency": "weekly"})
}

func TestRequestExit_CleanNavigatesImmediately(t *testing.T) {
	nav := &tabs{current: "communication"}
	g := New(nav, Options{Tracker: newPrefs()})

	out, err := g.RequestExit("security")
	require.NoError(t, err)
	assert.Equal(t, Navigated, out)
	assert.Equal(t, Target("security"), nav.current)
	assert.False(t, g.PromptVisible())
}

func TestRequestExit_DirtyPrompts(t *testing.T) {
	nav := &tabs{current: "communication"}
	snap := newPrefs()
	var prompted []PendingExit
	g := New(nav, Options{Tracker: snap, OnPrompt: func(p PendingExit) { prompted = append(prompted, p) }})

	snap.Set("frequency", "daily")
	out, err := g.RequestExit("security")
	require.NoError(t, err)

	assert.Equal(t, Prompted, out)
	assert.Equal(t, Target("communication"), nav.current)
	assert.True(t, g.PromptVisible())
	p, ok := g.Pending()
	require.True(t, ok)
	assert.Equal(t, Target("security"), p.Target)
	assert.True(t, p.Dirty)
	assert.Equal(t, model.ErrUnsavedChangesConflict, p.Reason.Code)
	assert.Len(t, prompted, 1)
}

func TestConfirmSaveAndExit(t *testing.T) {
	nav := &tabs{current: "communication"}
	snap := newPrefs()
	saved := 0
	g := New(nav, Options{Tracker: snap, Save: func() error { saved++; return nil }})

	snap.Set("frequency", "daily")
	_, err := g.RequestExit("security")
	require.NoError(t, err)

	require.NoError(t, g.ConfirmSaveAndExit())
	assert.Equal(t, 1, saved)
	assert.False(t, snap.IsDirty())
	assert.Equal(t, "daily", snap.Saved()["frequency"])
	assert.Equal(t, Target("security"), nav.current)
	assert.False(t, g.PromptVisible())
}

func TestConfirmSaveAndExit_SaveFailureKeepsPrompt(t *testing.T) {
	nav := &tabs{current: "communication"}
	snap := newPrefs()
	g := New(nav, Options{Tracker: snap, Save: func() error { return errors.New("disk full") }})

	snap.Set("frequency", "daily")
	_, _ = g.RequestExit("security")

	assert.Error(t, g.ConfirmSaveAndExit())
	assert.True(t, g.PromptVisible())
	assert.True(t, snap.IsDirty())
	assert.Equal(t, Target("communication"), nav.current)
}

func TestConfirmDiscardAndExit(t *testing.T) {
	nav := &tabs{current: "communication"}
	snap := newPrefs()
	g := New(nav, Options{Tracker: snap})

	snap.Set("emailOptIn", false)
	_, _ = g.RequestExit("/home")

	require.NoError(t, g.ConfirmDiscardAndExit())
	assert.False(t, snap.IsDirty())
	assert.Equal(t, true, snap.Get("emailOptIn"))
	assert.Equal(t, Target("/home"), nav.current)
	assert.False(t, g.PromptVisible())
}

func TestCancelExitRequest_KeepsEdits(t *testing.T) {
	nav := &tabs{current: "communication"}
	snap := newPrefs()
	g := New(nav, Options{Tracker: snap})

	snap.Set("frequency", "daily")
	_, _ = g.RequestExit("security")

	require.NoError(t, g.CancelExitRequest())
	assert.False(t, g.PromptVisible())
	assert.True(t, snap.IsDirty())
	assert.Equal(t, "daily", snap.Get("frequency"))
	assert.Equal(t, Target("communication"), nav.current)
	assert.Empty(t, nav.history)
}

func TestResolveWithoutPending(t *testing.T) {
	g := New(&tabs{}, Options{})
	for _, err := range []error{g.ConfirmDiscardAndExit(), g.ConfirmSaveAndExit(), g.CancelExitRequest()} {
		assert.True(t, model.IsCode(err, model.ErrNoPendingExit))
	}
}

func TestRequestExit_BusyFlowPrompts(t *testing.T) {
	nav := &tabs{}
	busy := true
	g := New(nav, Options{Busy: func() bool { return busy }})

	out, err := g.RequestExit("close")
	require.NoError(t, err)
	assert.Equal(t, Prompted, out)
	p, _ := g.Pending()
	assert.False(t, p.Dirty)
	assert.Equal(t, "You have a flow in progress", p.Reason.Message)

	require.NoError(t, g.ConfirmDiscardAndExit())
	assert.Equal(t, Target("close"), nav.current)

	busy = false
	out, err = g.RequestExit("close")
	require.NoError(t, err)
	assert.Equal(t, Navigated, out)
}

func TestRequestExit_SecondRequestRetargets(t *testing.T) {
	snap := newPrefs()
	g := New(&tabs{}, Options{Tracker: snap})
	snap.Set("frequency", "daily")

	_, _ = g.RequestExit("security")
	out, err := g.RequestExit("billing")
	require.NoError(t, err)
	assert.Equal(t, Prompted, out)
	p, _ := g.Pending()
	assert.Equal(t, Target("billing"), p.Target)
}

func TestInterceptExternal(t *testing.T) {
	nav := &tabs{current: "/profile/preferences"}
	snap := newPrefs()
	g := New(nav, Options{Tracker: snap})

	out, err := g.InterceptExternal("/profile/preferences", "/home")
	require.NoError(t, err)
	assert.Equal(t, Navigated, out, "clean state lets external navigation stand")
	assert.Empty(t, nav.restored)

	snap.Set("frequency", "daily")
	nav.current = "/home"
	out, err = g.InterceptExternal("/profile/preferences", "/home")
	require.NoError(t, err)
	assert.Equal(t, Prompted, out)
	assert.Equal(t, []Target{"/profile/preferences"}, nav.restored)
	assert.Equal(t, Target("/profile/preferences"), nav.current, "restored before the prompt")

	p, _ := g.Pending()
	assert.True(t, p.External)
	assert.Equal(t, Target("/home"), p.Target)

	require.NoError(t, g.ConfirmDiscardAndExit())
	assert.Equal(t, Target("/home"), nav.current)
}

func TestNavigateError(t *testing.T) {
	nav := &tabs{fail: errors.New("route missing")}
	g := New(nav, Options{})

	_, err := g.RequestExit("nowhere")
	assert.ErrorContains(t, err, "route missing")
}

func TestSetTracker(t *testing.T) {
	nav := &tabs{}
	a, b := newPrefs(), newPrefs()
	g := New(nav, Options{Tracker: a})
	a.Set("frequency", "daily")
	assert.True(t, g.Blocking())

	g.SetTracker(b)
	assert.False(t, g.Blocking())
}

func TestNavigatorFunc(t *testing.T) {
	var got Target
	g := New(NavigatorFunc(func(to Target) error { got = to; return nil }), Options{})
	_, err := g.RequestExit("x")
	require.NoError(t, err)
	assert.Equal(t, Target("x"), got)
	assert.Equal(t, "navigated", Navigated.String())
	assert.Equal(t, "prompted", Prompted.String())
}
