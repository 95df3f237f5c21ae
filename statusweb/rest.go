package statusweb

import "net/http"

// restRoutes returns the JSON status endpoints, kept separate from the
// HTML routes.
func (s *server) restRoutes() []Route {
	return []Route{
		{Path: "/rest/status", Controller: s.restStatus},
	}
}

type restStatusResponse struct {
	Version  int             `json:"version"`
	Summary  Summary         `json:"summary"`
	Archives []ArchiveStatus `json:"archives"`
}

func (s *server) restStatus(w http.ResponseWriter, req *http.Request) {
	Render.JSON(w, http.StatusOK, restStatusResponse{
		Version:  1,
		Summary:  s.model.Summarize(),
		Archives: s.model.Snapshot(),
	})
}
