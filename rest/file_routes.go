package rest

import (
	"context"
	"mime"
	"net/http"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/data"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

///////////////////////////////////////////////////////////////////////////////
//
// GET /files

type filesGetHandler struct {
	query string
	kind  string
	user  *dbmodel.User
	sc    data.Connector
}

func makeGetFiles(sc data.Connector) gimlet.RouteHandler {
	return &filesGetHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new filesGetHandler.
func (h *filesGetHandler) Factory() gimlet.RouteHandler {
	return &filesGetHandler{
		sc: h.sc,
	}
}

// Parse fetches the q and kind filters from the query string.
func (h *filesGetHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	vals := r.URL.Query()
	h.query = vals.Get("q")
	h.kind = vals.Get("kind")
	return nil
}

// Run returns the matching indexed files with the last reindex result.
func (h *filesGetHandler) Run(ctx context.Context) gimlet.Responder {
	docs, err := h.sc.FindDocuments(ctx, h.user, h.query, h.kind)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/files",
			"q":       h.query,
			"kind":    h.kind,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(docs)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /files/reindex

type filesReindexHandler struct {
	user *dbmodel.User
	sc   data.Connector
}

func makeReindexFiles(sc data.Connector) gimlet.RouteHandler {
	return &filesReindexHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new filesReindexHandler.
func (h *filesReindexHandler) Factory() gimlet.RouteHandler {
	return &filesReindexHandler{
		sc: h.sc,
	}
}

// Parse fetches the requesting user.
func (h *filesReindexHandler) Parse(ctx context.Context, _ *http.Request) error {
	h.user = getUser(ctx)
	return nil
}

// Run rescans the working root.
func (h *filesReindexHandler) Run(ctx context.Context) gimlet.Responder {
	res, err := h.sc.ReindexDocuments(ctx, h.user)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/files/reindex",
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	grip.Info(message.Fields{
		"message": "reindexed files",
		"request": gimlet.GetRequestID(ctx),
		"scanned": res.TotalScanned,
		"created": res.Created,
		"updated": res.Updated,
		"deleted": res.Deleted,
	})
	return gimlet.NewJSONResponse(res)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /files/{id}

type fileGetByIDHandler struct {
	id   int
	user *dbmodel.User
	sc   data.Connector
}

func makeGetFileByID(sc data.Connector) gimlet.RouteHandler {
	return &fileGetByIDHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new fileGetByIDHandler.
func (h *fileGetByIDHandler) Factory() gimlet.RouteHandler {
	return &fileGetByIDHandler{
		sc: h.sc,
	}
}

// Parse fetches the id from the http request.
func (h *fileGetByIDHandler) Parse(ctx context.Context, r *http.Request) error {
	h.user = getUser(ctx)
	var err error
	h.id, err = parseID(r, "id")
	return err
}

// Run returns the document and its preview.
func (h *fileGetByIDHandler) Run(ctx context.Context) gimlet.Responder {
	doc, err := h.sc.FindDocumentByID(ctx, h.user, h.id)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/files/{id}",
			"id":      h.id,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}
	return gimlet.NewJSONResponse(doc)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /files/{id}/download

func (s *Service) downloadFile(rw http.ResponseWriter, r *http.Request) {
	var err error
	defer func() {
		logRequestError(r, err)
	}()

	ctx := r.Context()
	id, perr := parseID(r, "id")
	if perr != nil {
		gimlet.WriteResponse(rw, gimlet.MakeJSONErrorResponder(perr))
		return
	}

	file, ferr := s.sc.OpenDocument(ctx, getUser(ctx), id)
	if ferr != nil {
		logFindError(ferr, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/files/{id}/download",
			"id":      id,
		})
		gimlet.WriteResponse(rw, gimlet.MakeJSONErrorResponder(ferr))
		return
	}
	defer func() {
		if cerr := file.Content.Close(); cerr != nil {
			err = cerr
		}
	}()

	rw.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	http.ServeContent(rw, r, file.Name, file.ModTime, file.Content)
}
