package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Service health
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// List layouts
	// (GET /layouts)
	ListLayouts(w http.ResponseWriter, r *http.Request, params ListLayoutsParams)
	// Describe one layout
	// (GET /layouts/{name})
	GetLayout(w http.ResponseWriter, r *http.Request, name string)
	// Compose uploaded images
	// (POST /compose)
	ComposeImages(w http.ResponseWriter, r *http.Request)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// GetHealth operation middleware
func (siw *ServerInterfaceWrapper) GetHealth(w http.ResponseWriter, r *http.Request) {
	siw.Handler.GetHealth(w, r)
}

// ListLayouts operation middleware
func (siw *ServerInterfaceWrapper) ListLayouts(w http.ResponseWriter, r *http.Request) {
	var params ListLayoutsParams

	err := runtime.BindQueryParameter("form", true, false, "slots", r.URL.Query(), &params.Slots)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "slots", Err: err})
		return
	}

	siw.Handler.ListLayouts(w, r, params)
}

// GetLayout operation middleware
func (siw *ServerInterfaceWrapper) GetLayout(w http.ResponseWriter, r *http.Request) {
	var name string

	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "name", Err: err})
		return
	}

	siw.Handler.GetLayout(w, r, name)
}

// ComposeImages operation middleware
func (siw *ServerInterfaceWrapper) ComposeImages(w http.ResponseWriter, r *http.Request) {
	siw.Handler.ComposeImages(w, r)
}

// InvalidParamFormatError is returned when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:          si,
		ErrorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get("/health", wrapper.GetHealth)
	})
	r.Group(func(r chi.Router) {
		r.Get("/layouts", wrapper.ListLayouts)
	})
	r.Group(func(r chi.Router) {
		r.Get("/layouts/{name}", wrapper.GetLayout)
	})
	r.Group(func(r chi.Router) {
		r.Post("/compose", wrapper.ComposeImages)
	})

	return r
}
