package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/neja/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/neja/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/neja/internal/adapters/manifest"  //nolint:depguard // Wired in app layer
	"go.trai.ch/neja/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/neja/internal/adapters/units"     //nolint:depguard // Wired in app layer
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// LogSettings adjusts the logger from command line flags.
type LogSettings interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App         *App
	Logger      ports.Logger
	LogSettings LogSettings
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			fs.NodeID,
			fs.HasherNodeID,
			fs.WalkerNodeID,
			manifest.NodeID,
			telemetry.NodeID,
			units.NodeID,
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

	fsys, err := graft.Dep[ports.FileSystem](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	walker, err := graft.Dep[ports.Walker](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.ManifestStore](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.UnitLoader](ctx)
	if err != nil {
		return nil, err
	}

	return New(log, fsys, hasher, walker, store, tracer, loader), nil
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

	settings, ok := log.(LogSettings)
	if !ok {
		return nil, domain.ErrLoggerNotConfigurable
	}

	return &Components{
		App:         app,
		Logger:      log,
		LogSettings: settings,
	}, nil
}
