// Package parsejson decodes the external markup format (a parsed
// ComponentTree as JSON) into the graph package's Element/Child shape the
// Graph Builder consumes.
package parsejson

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dqnykamp/doenetgraph/internal/ferrors"
	"github.com/dqnykamp/doenetgraph/internal/graph"
)

type wireRange struct {
	Kind  string `json:"kind"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}

type wireElement struct {
	ComponentType string            `json:"componentType"`
	Props         map[string]any    `json:"props"`
	Children      []json.RawMessage `json:"children"`
	Range         *wireRange        `json:"range"`
}

// Parse decodes a markup document: either a single element object, or a
// bare array of nodes (wrapped into a synthetic document element, same as
// a non-document root element would be by graph.Build).
func Parse(data []byte) (*graph.Element, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parsejson: empty input")
	}
	if trimmed[0] == '[' {
		var rawChildren []json.RawMessage
		if err := json.Unmarshal(trimmed, &rawChildren); err != nil {
			return nil, fmt.Errorf("parsejson: decoding root node list: %w", err)
		}
		children := make([]graph.Child, 0, len(rawChildren))
		for _, raw := range rawChildren {
			c, err := convertChild(raw)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return &graph.Element{ComponentType: "document", Props: map[string]any{}, Children: children}, nil
	}

	var we wireElement
	if err := json.Unmarshal(trimmed, &we); err != nil {
		return nil, fmt.Errorf("parsejson: decoding root element: %w", err)
	}
	return convertElement(we)
}

func convertElement(we wireElement) (*graph.Element, error) {
	children := make([]graph.Child, 0, len(we.Children))
	for _, raw := range we.Children {
		c, err := convertChild(raw)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	props := we.Props
	if props == nil {
		props = map[string]any{}
	}
	return &graph.Element{
		ComponentType: we.ComponentType,
		Props:         props,
		Children:      children,
		Range:         convertRange(we.Range),
	}, nil
}

func convertChild(raw json.RawMessage) (graph.Child, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return graph.Child{}, fmt.Errorf("parsejson: decoding string child: %w", err)
		}
		return graph.StringChild(s), nil
	}
	var we wireElement
	if err := json.Unmarshal(trimmed, &we); err != nil {
		return graph.Child{}, fmt.Errorf("parsejson: decoding element child: %w", err)
	}
	el, err := convertElement(we)
	if err != nil {
		return graph.Child{}, err
	}
	return graph.ElementChild(el), nil
}

func convertRange(r *wireRange) ferrors.SourceRange {
	if r == nil {
		return ferrors.SourceRange{Kind: ferrors.RangeNone}
	}
	kind := ferrors.RangeNone
	switch r.Kind {
	case "OpenClose":
		kind = ferrors.RangeOpenClose
	case "SelfClose":
		kind = ferrors.RangeSelfClose
	case "FromMacro":
		kind = ferrors.RangeFromMacro
	}
	return ferrors.SourceRange{Kind: kind, Begin: r.Begin, End: r.End}
}
