package advisory

import "go.uber.org/fx"

// Module provides the advisory service.
var Module = fx.Module("advisory",
	fx.Provide(NewService),
)
