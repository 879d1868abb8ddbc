// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes taste classification tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/genome"
	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/reading"
	"github.com/starford/subtaste/internal/signal"
	"github.com/starford/subtaste/internal/storage"
)

const signalFormatURI = "subtaste://signal-format"

// Server wraps the MCP server with the subtaste tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *genomeservice.Service
	inbox storage.Provider
}

// New creates a new MCP server with all tools registered. inbox may be nil,
// in which case import_batch ingests directly instead of queueing a file.
func New(svc *genomeservice.Service, inbox storage.Provider, version string) *Server {
	s := &Server{svc: svc, inbox: inbox}

	s.mcp = server.NewMCPServer(
		"Subtaste",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("classify_signals",
		mcp.WithDescription("Classify a list of taste signals into the twelve archetypes without storing anything. "+
			"Signals MUST follow the signal format contract (get_signal_format tool or the "+
			signalFormatURI+" resource)."),
		mcp.WithString("signals", mcp.Required(), mcp.Description("JSON array of signals")),
		mcp.WithString("context", mcp.Description("Optional context label (Creating, Consuming, Curating or custom)")),
	), s.classifySignals)

	s.mcp.AddTool(mcp.NewTool("get_public_genome",
		mcp.WithDescription("Read the public taste genome of a user. Formal names stay hidden until revealed."),
		mcp.WithString("userId", mcp.Required(), mcp.Description("Owner of the genome")),
	), s.getPublicGenome)

	s.mcp.AddTool(mcp.NewTool("ingest_signals",
		mcp.WithDescription("Create or evolve a user's genome from a list of signals."),
		mcp.WithString("userId", mcp.Required(), mcp.Description("Owner of the genome")),
		mcp.WithString("signals", mcp.Required(), mcp.Description("JSON array of signals")),
		mcp.WithString("source", mcp.Description("Default source for signals that omit one")),
	), s.ingestSignals)

	s.mcp.AddTool(mcp.NewTool("import_batch",
		mcp.WithDescription("Fetch a signal batch file (JSON or YAML) from an http(s) or data: URL and ingest it."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or base64 data URI of the batch")),
		mcp.WithString("filename", mcp.Description("Optional file name used when queueing into the inbox")),
	), s.importBatch)

	s.mcp.AddTool(mcp.NewTool("detect_context",
		mcp.WithDescription("Guess whether signals were produced while creating, consuming or curating."),
		mcp.WithString("signals", mcp.Required(), mcp.Description("JSON array of signals")),
	), s.detectContext)

	s.mcp.AddTool(mcp.NewTool("derive_reading",
		mcp.WithDescription("Derive a symbolic hexagram reading from four axes in [0,1]. Missing axes default to 0.5."),
		mcp.WithNumber("orderChaos", mcp.Description("Order (0) to chaos (1)")),
		mcp.WithNumber("mercyRuthlessness", mcp.Description("Mercy (0) to ruthlessness (1)")),
		mcp.WithNumber("introvertExtrovert", mcp.Description("Introvert (0) to extrovert (1)")),
		mcp.WithNumber("faithDoubt", mcp.Description("Faith (0) to doubt (1)")),
	), s.deriveReading)

	s.mcp.AddTool(mcp.NewTool("get_questions",
		mcp.WithDescription("List profiling stages and their questions. With userId, also report which stage "+
			"that user should take next."),
		mcp.WithString("stage", mcp.Description("Only this stage (initial, music or deep)")),
		mcp.WithString("userId", mcp.Description("Report the profiling status of this user")),
	), s.getQuestions)

	s.mcp.AddTool(mcp.NewTool("submit_assessment",
		mcp.WithDescription("Submit the answers to every question of one profiling stage. The initial stage "+
			"creates the genome; later stages refine it."),
		mcp.WithString("userId", mcp.Required(), mcp.Description("Owner of the genome")),
		mcp.WithString("stage", mcp.Required(), mcp.Description("Stage being answered")),
		mcp.WithString("responses", mcp.Required(),
			mcp.Description(`JSON array of {"questionId","response"}; response is an option index, a 1-based `+
				"scale point or an array of item indices in order of preference")),
	), s.submitAssessment)

	s.mcp.AddTool(mcp.NewTool("learn_keywords",
		mcp.WithDescription("Learn the visual and content keywords of a description a user liked or disliked."),
		mcp.WithString("userId", mcp.Required(), mcp.Description("Owner of the genome")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Descriptive text")),
		mcp.WithNumber("weight", mcp.Description("Strength in (0, 10], default 1")),
		mcp.WithString("polarity", mcp.Description("positive (default) or negative")),
	), s.learnKeywords)

	s.mcp.AddTool(mcp.NewTool("list_archetypes",
		mcp.WithDescription("List the public identity of the twelve archetypes."),
	), s.listArchetypes)

	s.mcp.AddTool(mcp.NewTool("get_signal_format",
		mcp.WithDescription("Returns the signal and batch format contract. "+
			"Call this before classifying or ingesting signals."),
	), s.getSignalFormat)

	s.mcp.AddResource(
		mcp.NewResource(signalFormatURI, "Signal Format Contract",
			mcp.WithResourceDescription("Wire format of signals and signal batch files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSignalFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func parseSignals(raw string) ([]signal.Signal, error) {
	var signals []signal.Signal
	if err := json.Unmarshal([]byte(raw), &signals); err != nil {
		return nil, fmt.Errorf("signals: %w", err)
	}
	return signals, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

type classifyOutput struct {
	Context           string                    `json:"context,omitempty"`
	Classification    classifier.Classification `json:"classification"`
	OverallConfidence float64                   `json:"overallConfidence"`
}

func (s *Server) classifySignals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("signals")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	signals, err := parseSignals(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	label := req.GetString("context", "")
	res, err := s.svc.Classify(ctx, signals, label)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(classifyOutput{
		Context:           label,
		Classification:    res.Classification,
		OverallConfidence: res.OverallConfidence,
	})
}

func (s *Server) getPublicGenome(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, err := s.svc.GetPublic(ctx, owner)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(g)
}

type ingestOutput struct {
	Genome  genome.PublicGenome `json:"genome"`
	Created bool                `json:"created"`
	Drift   float64             `json:"drift"`
	Drifted bool                `json:"drifted"`
}

func changeOutput(c genomeservice.Change) ingestOutput {
	return ingestOutput{
		Genome:  genome.ToPublic(c.Genome),
		Created: c.Created,
		Drift:   c.Drift,
		Drifted: c.Drifted,
	}
}

func (s *Server) ingestSignals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := req.RequireString("userId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("signals")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	signals, err := parseSignals(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source := signal.Source(req.GetString("source", ""))
	for i := range signals {
		if signals[i].Source == "" {
			signals[i].Source = source
		}
	}

	c, err := s.svc.Ingest(ctx, signal.Batch{UserID: owner, Source: source, Signals: signals})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(changeOutput(c))
}

func (s *Server) detectContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("signals")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	signals, err := parseSignals(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.DetectContext(ctx, signals)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(d)
}

func (s *Server) deriveReading(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	axis := func(key string) *float64 {
		if v, ok := args[key].(float64); ok {
			return &v
		}
		return nil
	}
	in := reading.AxesInput{
		OrderChaos:         axis("orderChaos"),
		MercyRuthlessness:  axis("mercyRuthlessness"),
		IntrovertExtrovert: axis("introvertExtrovert"),
		FaithDoubt:         axis("faithDoubt"),
	}
	r, err := s.svc.DeriveReading(ctx, in)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(r)
}

func (s *Server) listArchetypes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(archetype.PublicCatalog())
}

func (s *Server) getSignalFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SignalFormatContract), nil
}

func (s *Server) readSignalFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      signalFormatURI,
			MIMEType: "text/markdown",
			Text:     SignalFormatContract,
		},
	}, nil
}
