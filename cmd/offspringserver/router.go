package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/interpose/middleware"
	"github.com/justinas/alice"
)

func router(h *handler) http.Handler {
	router := mux.NewRouter()
	POST := router.Methods("POST").Subrouter()
	GET := router.Methods("GET", "HEAD").Subrouter()

	GET.HandleFunc("/health", h.Health).Name("health")
	GET.HandleFunc("/api/analysis", h.Analysis).Name("analysis")
	GET.HandleFunc("/api/models", h.ListModels).Name("models")
	GET.HandleFunc("/api/models/{id}", h.Model).Name("model")

	//
	// POST
	//
	POST.HandleFunc("/api/analysis", h.RegisterModel)

	standard := alice.New(
		// Log all requests to STDOUT
		middleware.GorillaLog(),
	)

	return standard.Then(router)
}
