package statusweb

import (
	"net/http"

	"github.com/unrolled/render"
)

// Render is the global render.Render instance every controller uses.
var Render *render.Render

// BuildRender initializes Render against templateDir. IsDevelopment is left
// on so templates reload on each request.
func BuildRender(templateDir string) {
	Render = render.New(render.Options{
		Directory:     templateDir,
		Layout:        "layout",
		IndentJSON:    true,
		IsDevelopment: true,
	})
}

func replyServerError(w http.ResponseWriter, err error) {
	log.WithError(err).Error("statusweb: rendering 500")
	Render.HTML(w, http.StatusInternalServerError, "servererror", map[string]interface{}{
		"Error": err.Error(),
	})
}
