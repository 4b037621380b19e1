//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scripthost/internal/app"
)

// InitializeApp loads the configuration at path and assembles the host.
func InitializeApp(path string) (*app.App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
