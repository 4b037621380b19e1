package client

import (
	"context"

	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/server"
)

func (c *Client) Status(ctx context.Context) (server.StatusData, error) {
	var out server.StatusData
	err := c.Call(ctx, server.Command{Command: server.CmdStatus}, &out)
	return out, err
}

// Reload rebuilds the script domain and returns the resulting status.
func (c *Client) Reload(ctx context.Context) (server.StatusData, error) {
	var out server.StatusData
	err := c.Call(ctx, server.Command{Command: server.CmdReload}, &out)
	return out, err
}

func (c *Client) Types(ctx context.Context) ([]server.TypeData, error) {
	var out []server.TypeData
	err := c.Call(ctx, server.Command{Command: server.CmdTypes}, &out)
	return out, err
}

func (c *Client) Config(ctx context.Context, typeName string) (metadata.EntityConfig, error) {
	var out metadata.EntityConfig
	err := c.Call(ctx, server.Command{Command: server.CmdConfig, Type: typeName}, &out)
	return out, err
}

// Spawn creates, configures and spawns one entity.
func (c *Client) Spawn(ctx context.Context, typeName string, id uint32, name string, props ...server.PropertyValue) (server.SpawnData, error) {
	var out server.SpawnData
	err := c.Call(ctx, server.Command{
		Command:    server.CmdSpawn,
		Type:       typeName,
		ID:         id,
		Name:       name,
		Properties: props,
	}, &out)
	return out, err
}

func (c *Client) SetProperty(ctx context.Context, id uint32, prop server.PropertyValue) error {
	return c.Call(ctx, server.Command{
		Command: server.CmdSetProperty,
		ID:      id,
		Name:    prop.Name,
		Kind:    prop.Kind,
		Value:   prop.Value,
	}, nil)
}

func (c *Client) Remove(ctx context.Context, id uint32, force bool) error {
	return c.Call(ctx, server.Command{Command: server.CmdRemove, ID: id, Force: force}, nil)
}

func (c *Client) Position(ctx context.Context, id uint32) (server.PositionData, error) {
	var out server.PositionData
	err := c.Call(ctx, server.Command{Command: server.CmdPosition, ID: id}, &out)
	return out, err
}
