package seeder

import "go.uber.org/fx"

// Module provides the seeder to Fx.
var Module = fx.Provide(New)
