package app

import (
	"io"

	"github.com/vk/launchgrid/internal/registry"
	"github.com/vk/launchgrid/modules/env_vars"
	"github.com/vk/launchgrid/modules/http_request"
	"github.com/vk/launchgrid/modules/print"
	"github.com/vk/launchgrid/modules/sleep"
	"github.com/vk/launchgrid/modules/socketio"
	"github.com/vk/launchgrid/modules/transfer"
)

// coreModules is the definitive list of all modules that are compiled into
// the launchgrid binary. The print runner writes to outW.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&env_vars.Module{},
		&print.Module{Out: outW},
		&http_request.Module{},
		&socketio.Module{},
		&sleep.Module{},
		&transfer.Module{},
	}
}
