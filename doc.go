// File: confcore/doc.go

// Package confcore provides a layered, typed configuration runtime for
// Go applications: command-line flags, environment variables, and
// structured files (TOML, YAML, Java-style .properties) feed a single
// Configuration through a priority-ordered chain of Sources, with a
// ConverterRegistry deriving typed accessors for anything from
// built-in scalars to user-defined structs.
//
// Features:
//   - Multiple sources with explicit, overridable ordinals
//   - Thread-safe operations using sync.RWMutex
//   - Automatic converter derivation for slices, sets, arrays,
//     Optional[T], encoding.TextUnmarshaler implementers, and more
//   - Builder pattern for assembling sources, converters, and scope
//   - A ProviderRegistry for sharing one Configuration per scope
//     without a full dependency-injection container
//   - mapstructure-based struct decoding for one-shot population
//
// Quick Start:
//
//	type AppConfig struct {
//	    Server struct {
//	        Host string `config:"host"`
//	        Port int    `config:"port"`
//	    } `config:"server"`
//	}
//
//	cfg, err := confcore.NewConfigurationBuilder().
//	    AddDefaultSources(os.Args[1:], "MYAPP_").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, _ := confcore.GetValue[string](cfg, "server.host")
//	port, _ := confcore.GetValue[int](cfg, "server.port")
//
// Default Precedence (highest to lowest):
//  1. Command-line flags (--server.port=9090, -Dserver.port=9090)
//  2. Environment variables (MYAPP_SERVER_PORT=9090)
//  3. Structured configuration files
//  4. Anything a host registers below FileOrdinal
//
// Custom Precedence:
//
//	envSrc := confcore.NewEnvSource("MYAPP_")
//	fileSrc, _ := confcore.NewTOMLFileSource("app", "config.toml")
//	cfg, err := confcore.NewConfigurationBuilder().
//	    WithSource(envSrc).
//	    WithSource(fileSrc).
//	    Build()
//
// Thread Safety:
// All operations are thread-safe. The package uses read-write mutexes
// to allow concurrent reads while protecting writes.
package confcore
