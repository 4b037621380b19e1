package server

import "github.com/zeusync/scripthost/internal/core/events/bus"

// Command is one request sent by a console client.
type Command struct {
	// Ref is echoed in the reply so clients can match responses.
	Ref        string          `json:"ref,omitempty"`
	Command    string          `json:"command"`
	Type       string          `json:"type,omitempty"`
	ID         uint32          `json:"id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Value      string          `json:"value,omitempty"`
	Force      bool            `json:"force,omitempty"`
	Properties []PropertyValue `json:"properties,omitempty"`
}

// PropertyValue is a property in its wire text form.
type PropertyValue struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type Reply struct {
	Ref   string `json:"ref,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// EventMessage is pushed to every client for each domain event.
type EventMessage struct {
	Event      string `json:"event"`
	Generation uint64 `json:"generation"`
	Data       any    `json:"data,omitempty"`
}

type StatusData struct {
	State      string `json:"state"`
	Generation uint64 `json:"generation"`
	Domain     string `json:"domain,omitempty"`
	Root       string `json:"root,omitempty"`
	Types      int    `json:"types"`
	Entities   int    `json:"entities"`
	Staged     int    `json:"staged"`
	Clients    int    `json:"clients"`

	Commands map[string]CommandStats `json:"commands,omitempty"`
	Events   bus.EventBusMetrics     `json:"events"`
}

type TypeData struct {
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	Actor      bool   `json:"actor"`
	FlowNode   bool   `json:"flow_node"`
	Properties int    `json:"properties"`
}

type SpawnData struct {
	ID       uint32 `json:"id"`
	FlowNode bool   `json:"flow_node"`
}

type PositionData struct {
	ID       uint32     `json:"id"`
	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"`
}
