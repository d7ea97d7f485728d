package main

import (
	"net/http"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	// Start from the builtin catalog; a catalog file extends/overrides it.
	catalog := flowCatalog(cfg, logger)

	srv := NewServer(catalog, logger)
	defer srv.Close()

	srv.SetSnapshotDir(cfg.SnapshotDir)
	srv.SetSnapshotEveryTicks(cfg.SnapshotEveryTicks)
	srv.SetFrameStride(cfg.FrameStride)
	srv.SetDefaultBounds(boundsFromConfig(cfg))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/materials", srv.handleMaterialsRoutes)
	mux.HandleFunc("/materials/", srv.handleMaterialsRoutes)
	mux.HandleFunc("/worlds", srv.handleWorldsRoutes)
	mux.HandleFunc("/worlds/", srv.handleWorldsRoutes)
	mux.HandleFunc("/streamers", srv.handleStreamersRoutes)
	mux.HandleFunc("/streamers/", srv.handleStreamersRoutes)

	logger.Infof("matflow-server listening on %s (catalog: %d materials)", cfg.Addr, catalog.Len())
	logger.Fatalf("%v", http.ListenAndServe(cfg.Addr, mux))
}
