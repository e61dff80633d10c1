package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/stepguard/internal/catalog"
	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/model"
)

// handleFlowList lists every registered flow.
func (s *Server) handleFlowList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	for _, f := range s.registry.All() {
		fmt.Fprintf(&sb, "%s (%s): %s\n", f.ID, f.Kind, f.Title)
	}
	if sb.Len() == 0 {
		return mcp.NewToolResultText("no flows registered"), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleFlowSteps describes the navigable order of one flow.
func (s *Server) handleFlowSteps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, errResult := s.flowArg(request)
	if errResult != nil {
		return errResult, nil
	}

	order, err := catalog.Flatten(f.Catalog)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s (policy %s)\n", f.ID, f.Title, order.Policy())
	for i := range order.Len() {
		step := order.At(i)
		fmt.Fprintf(&sb, "%s%d. %s [%s]", strings.Repeat("  ", step.Depth()), i+1, step.Label(), step.ID())
		if step.ID() == order.Review() {
			sb.WriteString(" (review)")
		}
		if f.Verification[step.ID()] != nil {
			sb.WriteString(" (verification: answer with code and method)")
		}
		sb.WriteString("\n")
		for _, field := range f.FieldsFor(step.ID()) {
			fmt.Fprintf(&sb, "%s   - %s (%s)", strings.Repeat("  ", step.Depth()), field.Key, field.Kind)
			if field.Rules != "" {
				fmt.Fprintf(&sb, " rules=%s", field.Rules)
			}
			if len(field.Options) > 0 {
				fmt.Fprintf(&sb, " options=%s", strings.Join(field.Options, "|"))
			}
			sb.WriteString("\n")
		}
		for _, crumb := range order.Breadcrumbs(step.ID()) {
			fmt.Fprintf(&sb, "%s   > %s\n", strings.Repeat("  ", step.Depth()), crumb.Label)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleFlowCheck validates answers without opening the flow.
func (s *Server) handleFlowCheck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, errResult := s.flowArg(request)
	if errResult != nil {
		return errResult, nil
	}
	answers, errResult := answersArg(request)
	if errResult != nil {
		return errResult, nil
	}

	errs, err := flows.Check(f, answers)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}
	if len(errs) == 0 {
		return mcp.NewToolResultText("all steps valid"), nil
	}

	ids := make([]string, 0, len(errs))
	for id := range errs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	for _, id := range ids {
		for _, fe := range errs[id] {
			fmt.Fprintf(&sb, "%s.%s: %s\n", id, fe.Field, fe.Message)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleFlowSubmit drives a flow to submission.
func (s *Server) handleFlowSubmit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, errResult := s.flowArg(request)
	if errResult != nil {
		return errResult, nil
	}
	answers, errResult := answersArg(request)
	if errResult != nil {
		return errResult, nil
	}

	out, err := flows.RunHeadless(ctx, f, s.opts.Env, answers)
	if err != nil {
		logger.Debug("flow-submit %s stopped at %s: %v", f.ID, out.Reached, err)
		if fe, ok := model.AsFlowError(err); ok {
			return mcp.NewToolResultText(fmt.Sprintf("error: stopped at %s: %s (%s)", out.Reached, fe.Message, fe.Code)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("error: stopped at %s: %v", out.Reached, err)), nil
	}

	if out.Receipt != nil {
		return mcp.NewToolResultText(fmt.Sprintf("submitted %s: reference %s at %s",
			f.ID, out.Receipt.Reference, out.Receipt.SubmittedAt.Format(time.RFC3339))), nil
	}
	if len(out.Saved) > 0 {
		return mcp.NewToolResultText(fmt.Sprintf("saved %s: %s", f.ID, strings.Join(out.Saved, ", "))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("nothing to save for %s", f.ID)), nil
}

// handleHistory lists accepted submissions.
func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.opts.History == nil {
		return mcp.NewToolResultText("error: submission history is not available"), nil
	}

	flow := ""
	if args := request.GetArguments(); args != nil {
		flow, _ = args["flow"].(string)
	}

	records, err := s.opts.History.History(ctx, flow)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("no submissions"), nil
	}

	var sb strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&sb, "%s %s %s\n", rec.Receipt.SubmittedAt.Format(time.RFC3339), rec.Flow, rec.Receipt.Reference)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) flowArg(request mcp.CallToolRequest) (*flows.Flow, *mcp.CallToolResult) {
	args := request.GetArguments()
	if args == nil {
		return nil, mcp.NewToolResultText("error: invalid arguments")
	}
	id, ok := args["flow"].(string)
	if !ok || id == "" {
		return nil, mcp.NewToolResultText("error: flow parameter is required")
	}
	f, err := s.registry.Get(id)
	if err != nil {
		return nil, mcp.NewToolResultText(fmt.Sprintf("error: %v", err))
	}
	return f, nil
}

// answersArg decodes the answers object: step id to an object of field
// values.
func answersArg(request mcp.CallToolRequest) (flows.Answers, *mcp.CallToolResult) {
	raw, ok := request.GetArguments()["answers"].(map[string]any)
	if !ok {
		return nil, mcp.NewToolResultText("error: answers must be an object keyed by step id")
	}
	answers := make(flows.Answers, len(raw))
	for id, v := range raw {
		values, ok := v.(map[string]any)
		if !ok {
			return nil, mcp.NewToolResultText(fmt.Sprintf("error: answers.%s must be an object of field values", id))
		}
		answers[id] = values
	}
	return answers, nil
}
