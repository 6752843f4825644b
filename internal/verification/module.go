package verification

import "go.uber.org/fx"

// Module provides the product Verifier.
var Module = fx.Module("verification",
	fx.Provide(NewVerifier),
)
