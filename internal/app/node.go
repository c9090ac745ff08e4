package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/cigen/internal/adapters/config"              //nolint:depguard // Wired in app layer
	"go.trai.ch/cigen/internal/adapters/emitter"             //nolint:depguard // Wired in app layer
	"go.trai.ch/cigen/internal/adapters/environ"             //nolint:depguard // Wired in app layer
	"go.trai.ch/cigen/internal/adapters/logger"              //nolint:depguard // Wired in app layer
	"go.trai.ch/cigen/internal/adapters/shell"               //nolint:depguard // Wired in app layer
	"go.trai.ch/cigen/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/cigen/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			config.NodeID,
			emitter.NodeID,
			shell.NodeID,
			environ.NodeID,
			progrock.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.SettingsLoader](ctx)
	if err != nil {
		return nil, err
	}

	em, err := graft.Dep[ports.Emitter](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	env, err := graft.Dep[ports.Environment](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return New(log, loader, em, executor, env, telemetry), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log), nil
}
