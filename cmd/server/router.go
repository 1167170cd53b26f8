package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"userdirectory/internal/common"
	"userdirectory/internal/media"
	"userdirectory/internal/wire"
)

// setupRouter mounts the API, photo and health routes behind the shared
// middleware chain.
func setupRouter(app *wire.Application) http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.Handle("/health", app.Health).Methods(http.MethodGet)
	app.Handler.RegisterRoutes(api, common.RequireAuth(app.Tokens))

	media.NewHTTPServer(app.PhotoSource, app.Logger).RegisterRoutes(router)

	// outside the router so preflight requests never hit a 405
	var handler http.Handler = router
	handler = common.CORS(app.Config.CORS.AllowedOrigins)(handler)
	handler = common.SecurityHeaders(handler)
	handler = common.Logging(app.Logger, app.Config.IsProduction())(handler)
	handler = common.RequestID(handler)
	return handler
}
