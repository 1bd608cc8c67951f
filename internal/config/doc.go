// Package config holds the harvester configuration: default values,
// the flat Config struct populated from CLI flags, the curated table of
// well-known multi-book works, and the YAML work-list loader.
//
// Design decision: Configuration is passed through the application via
// dependency injection rather than global state. The Config struct is
// deliberately flat; the number of options is manageable and nesting
// would add complexity without benefit.
package config
