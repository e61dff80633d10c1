package flows

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/verify"
	"github.com/mark3labs/stepguard/internal/wizard"
)

// Answers are the values a headless run enters, keyed by step id and then
// field key. Verification steps read the code to enter from CodeKey and the
// delivery method from MethodKey (text when absent).
type Answers map[string]map[string]any

// Keys a verification step reads from its answers.
const (
	CodeKey   = "code"
	MethodKey = "method"
)

// Outcome reports how a headless run ended.
type Outcome struct {
	// Reached is the step the run stopped on.
	Reached string
	// Receipt is set once a wizard flow was submitted.
	Receipt *wizard.Receipt
	// Saved lists the tabs a tabbed flow saved, in order.
	Saved []string
}

// Check validates answers against every step that has inputs, without
// opening the flow. Defaults fill keys the answers leave out. Steps without
// errors are omitted.
func Check(f *Flow, answers Answers) (map[string][]model.FieldError, error) {
	out := map[string][]model.FieldError{}
	for id, validate := range f.validators() {
		data := f.Defaults[id].Clone()
		if data == nil {
			data = wizard.StepData{}
		}
		for key, v := range answers[id] {
			if key == CodeKey || key == MethodKey {
				continue
			}
			fd, ok := f.Field(id, key)
			if !ok {
				return nil, model.Errorf(model.ErrStepNotFound, "step %q has no field %q", id, key)
			}
			data[key] = normalize(fd, v)
		}
		if errs := validate(data); len(errs) > 0 {
			out[id] = errs
		}
	}
	return out, nil
}

// RunHeadless drives f from its first step to submission with answers, the
// way a user at the keyboard would: every step is gated, verification codes
// go through the code service and the final submit crosses env.Submitter.
// Tabbed flows save each answered tab instead.
func RunHeadless(ctx context.Context, f *Flow, env Env, answers Answers) (Outcome, error) {
	if f.Kind == KindTabs {
		return saveTabs(f, env, answers)
	}

	inst, err := NewInstance(f, env)
	if err != nil {
		return Outcome{}, err
	}
	inst.Open()
	defer inst.Controller().Close()

	c := inst.Controller()
	for range c.Order().Len() {
		id := c.CurrentStepID()
		out := Outcome{Reached: id}
		if err := enter(inst, id, answers[id]); err != nil {
			return out, err
		}
		if inst.NeedsVerification() {
			if err := verifyHeadless(ctx, inst, id, answers[id]); err != nil {
				return out, err
			}
		}
		if id == c.Review() {
			if err := inst.Submit(ctx); err != nil {
				return out, err
			}
			if r, ok := inst.LastReceipt(); ok {
				out.Receipt = &r
			}
			return out, nil
		}
		if err := c.GoNext(); err != nil {
			return out, err
		}
	}
	return Outcome{Reached: c.CurrentStepID()}, fmt.Errorf("flow %s never reached its review step", f.ID)
}

func enter(inst *Instance, id string, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key == CodeKey || key == MethodKey {
			continue
		}
		fd, ok := inst.flow.Field(id, key)
		if !ok {
			return model.Errorf(model.ErrStepNotFound, "step %q has no field %q", id, key)
		}
		if err := inst.Edit(id, key, normalize(fd, values[key])); err != nil {
			return err
		}
	}
	return nil
}

func verifyHeadless(ctx context.Context, inst *Instance, id string, values map[string]any) error {
	code, _ := values[CodeKey].(string)
	if code == "" {
		return model.Errorf(model.ErrValidationBlocked, "step %q needs a verification code", id)
	}
	method := verify.MethodText
	if raw, ok := values[MethodKey].(string); ok && raw != "" {
		m, err := verify.ParseMethod(raw)
		if err != nil {
			return err
		}
		method = m
	}

	s, err := inst.StartVerification()
	if err != nil {
		return err
	}
	if err := s.SelectMethod(method); err != nil {
		return err
	}
	if err := s.Send(ctx); err != nil {
		return err
	}
	s.SetCode(code)
	if err := s.Submit(ctx); err != nil {
		inst.CancelVerification()
		return err
	}
	return inst.FinishVerification()
}

func saveTabs(f *Flow, env Env, answers Answers) (Outcome, error) {
	ws, err := NewWorkspace(f, env)
	if err != nil {
		return Outcome{}, err
	}
	var out Outcome
	for _, tab := range ws.Tabs() {
		values, ok := answers[tab.ID]
		if !ok {
			continue
		}
		out.Reached = tab.ID
		if _, err := ws.SwitchTab(tab.ID); err != nil {
			return out, err
		}
		for key, v := range values {
			fd, ok := f.Field(tab.ID, key)
			if !ok {
				return out, model.Errorf(model.ErrStepNotFound, "tab %q has no field %q", tab.ID, key)
			}
			ws.Edit(key, normalize(fd, v))
		}
		if err := ws.Save(); err != nil {
			return out, err
		}
		out.Saved = append(out.Saved, tab.ID)
	}
	return out, nil
}

// normalize converts loosely typed input, such as decoded JSON, to the type
// the field edits.
func normalize(f Field, v any) any {
	switch f.Kind {
	case FieldCheckbox:
		if s, ok := v.(string); ok {
			b, err := strconv.ParseBool(s)
			if err == nil {
				return b
			}
		}
		return v
	default:
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64)
		case int:
			return strconv.Itoa(n)
		}
		return v
	}
}
