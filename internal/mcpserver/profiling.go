package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/subtaste/internal/keywords"
	"github.com/starford/subtaste/internal/profiler"
)

type stageQuestions struct {
	profiler.Stage
	Questions []profiler.Question `json:"questions"`
}

type questionsOutput struct {
	Stages []stageQuestions `json:"stages"`
	Status *profiler.Status `json:"status,omitempty"`
}

func (s *Server) getQuestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	only := profiler.StageID(req.GetString("stage", ""))
	var out questionsOutput
	for _, st := range profiler.Stages() {
		if only != "" && st.ID != only {
			continue
		}
		out.Stages = append(out.Stages, stageQuestions{Stage: st, Questions: profiler.Questions(st.ID)})
	}
	if len(out.Stages) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("unknown stage %q", only)), nil
	}
	if owner := req.GetString("userId", ""); owner != "" {
		st, err := s.svc.ProfilingStatus(ctx, owner)
		if err != nil {
			return errorResult(err), nil
		}
		out.Status = &st
	}
	return jsonResult(out)
}

func (s *Server) submitAssessment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stage, err := req.RequireString("stage")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("responses")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var responses []profiler.Response
	if err := json.Unmarshal([]byte(raw), &responses); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("responses: %v", err)), nil
	}

	c, err := s.svc.SubmitStage(ctx, owner, profiler.StageID(stage), responses, 0)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(changeOutput(c))
}

func (s *Server) learnKeywords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	weight := req.GetFloat("weight", 1)
	polarity := keywords.Polarity(req.GetString("polarity", string(keywords.Positive)))

	if _, err := s.svc.LearnKeywords(ctx, owner, text, weight, polarity, 0); err != nil {
		return errorResult(err), nil
	}
	prof, err := s.svc.Keywords(ctx, owner, 10)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(prof)
}
