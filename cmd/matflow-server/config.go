package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/matflow/matflow/internal/flow"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr               string
	CatalogFile        string
	SnapshotDir        string
	SnapshotEveryTicks int
	FrameStride        int
	WorldWidth         float64
	WorldHeight        float64
	LogLevel           string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// parseIntSetting parses an integer config value, falling back to def on
// bad input.
func parseIntSetting(name, v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default %d", name, v, def)
		return def
	}
	return n
}

// parseFloatSetting parses a float config value, falling back to def on
// bad input.
func parseFloatSetting(name, v string, def float64) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default %g", name, v, def)
		return def
	}
	return f
}

// loadServerConfig loads server configuration from CLI flags and environment
// variables. Flags win over env vars, env vars over defaults. Uses a resolver
// table so adding an option is one entry.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "MATFLOW_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "catalog-file",
			envVarName:  "MATFLOW_CATALOG_FILE",
			defaultVal:  "",
			description: "optional path to a JSON material catalog to load at startup (extends the builtin catalog)",
			setter:      func(c *ServerConfig, v string) { c.CatalogFile = v },
		},
		{
			flagName:    "snapshot-dir",
			envVarName:  "MATFLOW_SNAPSHOT_DIR",
			defaultVal:  "./data",
			description: "Directory where world snapshots are stored",
			setter:      func(c *ServerConfig, v string) { c.SnapshotDir = v },
		},
		{
			flagName:    "snapshot-every-ticks",
			envVarName:  "MATFLOW_SNAPSHOT_EVERY_TICKS",
			defaultVal:  "1000",
			description: "How often to write snapshots (in number of ticks); 0 disables periodic snapshots",
			setter: func(c *ServerConfig, v string) {
				c.SnapshotEveryTicks = parseIntSetting("snapshot-every-ticks", v, 1000)
			},
		},
		{
			flagName:    "frame-stride",
			envVarName:  "MATFLOW_FRAME_STRIDE",
			defaultVal:  "1",
			description: "Emit a frame event every N ticks; 0 disables frame streaming",
			setter: func(c *ServerConfig, v string) {
				c.FrameStride = parseIntSetting("frame-stride", v, 1)
			},
		},
		{
			flagName:    "world-width",
			envVarName:  "MATFLOW_WORLD_WIDTH",
			defaultVal:  "800",
			description: "Default world width for new worlds",
			setter: func(c *ServerConfig, v string) {
				c.WorldWidth = parseFloatSetting("world-width", v, 800)
			},
		},
		{
			flagName:    "world-height",
			envVarName:  "MATFLOW_WORLD_HEIGHT",
			defaultVal:  "600",
			description: "Default world height for new worlds",
			setter: func(c *ServerConfig, v string) {
				c.WorldHeight = parseFloatSetting("world-height", v, 600)
			},
		},
		{
			flagName:    "log-level",
			envVarName:  "MATFLOW_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	flag.Parse()

	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}

// flowCatalog builds the startup catalog: the builtin entries, extended by
// the configured catalog file if one is set.
func flowCatalog(cfg ServerConfig, logger *Logger) *flow.Catalog {
	catalog := flow.BuiltinCatalog()
	if cfg.CatalogFile == "" {
		return catalog
	}

	extra, err := loadCatalogFromFile(cfg.CatalogFile)
	if err != nil {
		logger.Fatalf("cannot load catalog file %s: %v", cfg.CatalogFile, err)
	}
	catalog.WithMaterials(extra.Materials()...)
	return catalog
}

// boundsFromConfig returns the default world bounds.
func boundsFromConfig(cfg ServerConfig) flow.Bounds {
	return flow.Bounds{Width: cfg.WorldWidth, Height: cfg.WorldHeight}
}

// loadCatalogFromFile reads, validates and builds a catalog from a JSON
// config file.
func loadCatalogFromFile(path string) (*flow.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg flow.CatalogConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return flow.BuildCatalogFromConfig(cfg)
}
