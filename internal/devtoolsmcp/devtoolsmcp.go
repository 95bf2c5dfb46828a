// Package devtoolsmcp exposes a read-only Model Context Protocol server
// over one document's component graph and freshness engine: an AI agent
// (or a human driving an MCP client) can list components, read a single
// state variable, or walk a state variable's dependency edges, without
// any path to mutate the document. Mutation stays behind HandleAction.
package devtoolsmcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dqnykamp/doenetgraph/internal/engine"
	"github.com/dqnykamp/doenetgraph/internal/graph"
)

// Inspector is the read-only view a Server needs into a live document: the
// static graph plus the engine that resolves and caches state variable
// values against it.
type Inspector interface {
	Graph() *graph.Graph
	Engine() *engine.Engine
}

// Server wraps an MCP SDK server pre-registered with this package's three
// introspection tools, bound to one Inspector.
type Server struct {
	mcpServer *mcp.Server
	inspector Inspector
}

// NewServer creates and registers every tool against a fresh MCP SDK
// server. The returned Server is ready to run over stdio or HTTP via the
// SDK's own transport helpers.
func NewServer(name, version string, inspector Inspector) *Server {
	impl := &mcp.Implementation{Name: name, Version: version}
	mcpServer := mcp.NewServer(impl, nil)
	s := &Server{mcpServer: mcpServer, inspector: inspector}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "list_components",
		Description: "List every component in the document graph, with its type and parent.",
		InputSchema: must(jsonschema.For[ListComponentsParams](nil)),
	}, s.listComponents)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "get_state_variable",
		Description: "Read one component's state variable: its current value, freshness state, and whether it fell back to its type default.",
		InputSchema: must(jsonschema.For[GetStateVariableParams](nil)),
	}, s.getStateVariable)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "get_dependency_graph",
		Description: "Walk one state variable's forward dependencies and reverse dependents, as last discovered by the freshness engine.",
		InputSchema: must(jsonschema.For[GetDependencyGraphParams](nil)),
	}, s.getDependencyGraph)

	return s
}

// Run serves over stdio until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func must(schema *jsonschema.Schema, err error) *jsonschema.Schema {
	if err != nil {
		panic(fmt.Sprintf("devtoolsmcp: building input schema: %v", err))
	}
	return schema
}

// ListComponentsParams takes no filters; the document graphs this server
// introspects are small enough to return whole.
type ListComponentsParams struct{}

// ComponentInfo is one entry of list_components' result.
type ComponentInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Parent string `json:"parent"`
	IsRoot bool   `json:"isRoot"`
}

func (s *Server) listComponents(ctx context.Context, req *mcp.CallToolRequest, _ ListComponentsParams) (*mcp.CallToolResult, any, error) {
	g := s.inspector.Graph()
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ComponentInfo, 0, len(names))
	for _, name := range names {
		node := g.Nodes[name]
		out = append(out, ComponentInfo{
			Name:   name,
			Type:   node.TypeName,
			Parent: node.Parent,
			IsRoot: name == g.Root,
		})
	}
	return textResult(out)
}

// GetStateVariableParams identifies one state variable to read.
type GetStateVariableParams struct {
	Component string `json:"component"`
	StateVar  string `json:"stateVar"`
}

// StateVariableInfo is get_state_variable's result.
type StateVariableInfo struct {
	Component   string `json:"component"`
	StateVar    string `json:"stateVar"`
	State       string `json:"state"`
	Value       any    `json:"value,omitempty"`
	UsedDefault bool   `json:"usedDefault"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) getStateVariable(ctx context.Context, req *mcp.CallToolRequest, params GetStateVariableParams) (*mcp.CallToolResult, any, error) {
	g := s.inspector.Graph()
	node, ok := g.Nodes[params.Component]
	if !ok {
		return textResult(StateVariableInfo{Component: params.Component, StateVar: params.StateVar, Error: "no such component"})
	}
	idx, ok := node.Type.StateVarIndex(params.StateVar)
	if !ok {
		return textResult(StateVariableInfo{Component: params.Component, StateVar: params.StateVar, Error: "no such state variable"})
	}

	e := s.inspector.Engine()
	v := e.EnsureFresh(params.Component, idx)
	return textResult(StateVariableInfo{
		Component:   params.Component,
		StateVar:    params.StateVar,
		State:       stateName(e.State(params.Component, idx)),
		Value:       v.ToWire(),
		UsedDefault: e.UsedDefault(params.Component, idx),
	})
}

// GetDependencyGraphParams identifies one state variable whose edges
// should be walked.
type GetDependencyGraphParams struct {
	Component string `json:"component"`
	StateVar  string `json:"stateVar"`
}

// EdgeRef names one state variable on the other end of an edge.
type EdgeRef struct {
	Component string `json:"component"`
	StateVar  string `json:"stateVar"`
}

// DependencyGraphInfo is get_dependency_graph's result.
type DependencyGraphInfo struct {
	Component    string    `json:"component"`
	StateVar     string    `json:"stateVar"`
	Dependencies []EdgeRef `json:"dependencies"`
	Dependents   []EdgeRef `json:"dependents"`
	Error        string    `json:"error,omitempty"`
}

func (s *Server) getDependencyGraph(ctx context.Context, req *mcp.CallToolRequest, params GetDependencyGraphParams) (*mcp.CallToolResult, any, error) {
	g := s.inspector.Graph()
	node, ok := g.Nodes[params.Component]
	if !ok {
		return textResult(DependencyGraphInfo{Component: params.Component, StateVar: params.StateVar, Error: "no such component"})
	}
	idx, ok := node.Type.StateVarIndex(params.StateVar)
	if !ok {
		return textResult(DependencyGraphInfo{Component: params.Component, StateVar: params.StateVar, Error: "no such state variable"})
	}

	e := s.inspector.Engine()
	e.EnsureFresh(params.Component, idx)

	return textResult(DependencyGraphInfo{
		Component:    params.Component,
		StateVar:     params.StateVar,
		Dependencies: toEdgeRefs(g, e.Dependencies(params.Component, idx)),
		Dependents:   toEdgeRefs(g, e.Dependents(params.Component, idx)),
	})
}

func toEdgeRefs(g *graph.Graph, keys []engine.Key) []EdgeRef {
	out := make([]EdgeRef, 0, len(keys))
	for _, k := range keys {
		node := g.Nodes[k.Component]
		if node == nil || k.Index >= len(node.Type.StateVars) {
			continue
		}
		out = append(out, EdgeRef{Component: k.Component, StateVar: node.Type.StateVars[k.Index].Name})
	}
	return out
}

func stateName(st engine.State) string {
	switch st {
	case engine.Fresh:
		return "Fresh"
	case engine.Stale:
		return "Stale"
	default:
		return "Unresolved"
	}
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("devtoolsmcp: marshaling result: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, v, nil
}
