// Package confstack resolves layered configuration for command-line tools:
// hierarchical files discovered by walking directory ancestors, environment
// variables, and --config command-line overrides merged into one value space
// with deterministic precedence and per-value provenance.
//
// Sources and precedence (highest to lowest):
//  1. --config command-line arguments (inline `key=value` or a file path)
//  2. Environment variables (MYAPP_PROFILE_DEV_OPT_LEVEL=3)
//  3. Config files, closest to the working directory first:
//     ./.myapp/config[.toml], ../.myapp/config[.toml], ..., ~/.myapp/config[.toml]
//
// Tables merge key-wise across sources and lists concatenate; only scalar
// conflicts follow the precedence order. A table or list never merges with a
// value of a different shape, regardless of source.
//
// Quick start:
//
//	type Profile struct {
//	    OptLevel *int64 `toml:"opt-level"`
//	    Debug    *bool  `toml:"debug"`
//	}
//
//	cfg, err := confstack.New("myapp")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var p Profile
//	if err := cfg.Get("profile.dev", &p); err != nil {
//	    log.Fatal(err)
//	}
//
// Pointer fields stay nil when no source defines them, so callers can tell
// "unset" from a zero value. Every typed accessor also reports where the
// winning value was defined, for diagnostics and for resolving relative paths
// against the file that named them.
//
// Construction is explicit: build one Config at process start (New, or
// Builder for tests and embedding) and pass it down. There is no package
// global and no implicit reload; ReloadRootedAt recomputes on demand.
package confstack
