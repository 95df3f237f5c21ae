package statusweb

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Route pairs a path with its handler.
type Route struct {
	Path       string
	Controller func(w http.ResponseWriter, req *http.Request)
}

// server holds the Model every controller closes over. NewRouter builds one
// per call so tests can use independent Models.
type server struct {
	model *Model
}

// Routes returns the dashboard's HTML routes.
func (s *server) Routes() []Route {
	return []Route{
		{Path: "/", Controller: s.homeController},
		{Path: "/archives/{name}", Controller: s.archiveController},
	}
}

func (s *server) homeController(w http.ResponseWriter, req *http.Request) {
	err := Render.HTML(w, http.StatusOK, "home", map[string]interface{}{
		"Summary":  s.model.Summarize(),
		"Archives": s.model.Snapshot(),
	})
	if err != nil {
		replyServerError(w, err)
	}
}

func (s *server) archiveController(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	for _, status := range s.model.Snapshot() {
		if status.FileName == name {
			if err := Render.HTML(w, http.StatusOK, "archive", map[string]interface{}{"Archive": status}); err != nil {
				replyServerError(w, err)
			}
			return
		}
	}
	http.NotFound(w, req)
}

// NewRouter builds the gorilla/mux router serving the dashboard and its
// REST status endpoint over model.
func NewRouter(model *Model) *mux.Router {
	s := &server{model: model}
	router := mux.NewRouter()
	for _, route := range s.Routes() {
		router.HandleFunc(route.Path, route.Controller)
	}
	for _, route := range s.restRoutes() {
		router.HandleFunc(route.Path, route.Controller)
	}
	return router
}
