package data

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/discovery-tools/scout/fileindex"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/model"
)

// DownloadPath is where the raw content of a document is served.
func DownloadPath(id int) string { return fmt.Sprintf("/rest/v1/files/%d/download", id) }

func importDocuments(docs []dbmodel.Document) ([]model.APIDocument, error) {
	out := make([]model.APIDocument, 0, len(docs))
	for _, d := range docs {
		api := model.APIDocument{}
		if err := api.Import(d); err != nil {
			return nil, internalError(err, "problem converting document %d", d.ID)
		}
		out = append(out, api)
	}
	return out, nil
}

// documentDetail adds the preview of the file under root. Files that
// vanished or escape the root have no preview.
func documentDetail(root string, doc dbmodel.Document) (*model.APIDocumentDetail, error) {
	out := &model.APIDocumentDetail{
		Previewable: fileindex.Previewable(doc.RelPath),
		DownloadURL: DownloadPath(doc.ID),
	}
	if err := out.APIDocument.Import(doc); err != nil {
		return nil, internalError(err, "problem converting document %d", doc.ID)
	}

	if p, ok := fileindex.SafeResolve(root, doc.RelPath); ok {
		if preview, ok := fileindex.ReadPreview(p); ok {
			out.Preview = &preview
		}
	}
	return out, nil
}

// openDocument opens a regular file under root.
func openDocument(root string, doc dbmodel.Document) (*DocumentFile, error) {
	p, ok := fileindex.SafeResolve(root, doc.RelPath)
	if !ok {
		return nil, notFound("file of document %d not found", doc.ID)
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound("file of document %d not found", doc.ID)
		}
		return nil, internalError(err, "problem opening document %d", doc.ID)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, internalError(err, "problem reading document %d", doc.ID)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, notFound("file of document %d not found", doc.ID)
	}

	return &DocumentFile{
		Name:    filepath.Base(p),
		ModTime: info.ModTime(),
		Content: f,
	}, nil
}

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

func (dbc *DBConnector) FindDocuments(ctx context.Context, u *dbmodel.User, q, kind string) (*model.APIDocumentList, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	query := dbmodel.DocumentQuery{Query: strings.TrimSpace(q), Kind: strings.TrimSpace(kind)}

	total, err := dbmodel.CountDocuments(ctx, dbc.env)
	if err != nil {
		return nil, internalError(err, "problem counting documents")
	}
	kinds, err := dbmodel.DocumentKinds(ctx, dbc.env)
	if err != nil {
		return nil, internalError(err, "problem listing document kinds")
	}
	docs, err := dbmodel.FindDocuments(ctx, dbc.env, query)
	if err != nil {
		return nil, internalError(err, "problem finding documents")
	}

	out := &model.APIDocumentList{
		Total:      total,
		Query:      query.Query,
		Kind:       query.Kind,
		Kinds:      kinds,
		CanReindex: u.IsAdmin(),
	}
	if out.Documents, err = importDocuments(docs); err != nil {
		return nil, err
	}

	run, err := dbmodel.FindOperationRun(ctx, dbc.env, dbmodel.OperationFilesReindex)
	if err != nil {
		return nil, internalError(err, "problem finding last reindex")
	}
	if run != nil {
		out.LastReindex = &model.APIReindexResult{}
		if err = out.LastReindex.Import(*run); err != nil {
			return nil, internalError(err, "problem converting last reindex")
		}
	}
	return out, nil
}

func (dbc *DBConnector) ReindexDocuments(ctx context.Context, u *dbmodel.User) (*model.APIReindexResult, error) {
	if err := requireAdmin(u, "reindex files"); err != nil {
		return nil, err
	}

	res, err := fileindex.Reindex(ctx, dbc.env)
	if err != nil {
		return nil, internalError(err, "problem reindexing files")
	}
	out := &model.APIReindexResult{}
	if err = out.Import(res); err != nil {
		return nil, internalError(err, "problem converting reindex result")
	}
	return out, nil
}

func (dbc *DBConnector) FindDocumentByID(ctx context.Context, u *dbmodel.User, id int) (*model.APIDocumentDetail, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	doc, err := dbmodel.FindDocument(ctx, dbc.env, id)
	if err != nil {
		return nil, findError(err, "document %d", id)
	}
	return documentDetail(dbc.env.GetConfig().WorkingRoot, *doc)
}

func (dbc *DBConnector) OpenDocument(ctx context.Context, u *dbmodel.User, id int) (*DocumentFile, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	doc, err := dbmodel.FindDocument(ctx, dbc.env, id)
	if err != nil {
		return nil, findError(err, "document %d", id)
	}
	return openDocument(dbc.env.GetConfig().WorkingRoot, *doc)
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

func (mc *MockConnector) findDocument(id int) (*dbmodel.Document, error) {
	for _, d := range mc.Documents {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, notFound("document %d not found", id)
}

func (mc *MockConnector) FindDocuments(_ context.Context, u *dbmodel.User, q, kind string) (*model.APIDocumentList, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	q = strings.TrimSpace(q)
	kind = strings.TrimSpace(kind)
	kindSet := map[string]bool{}
	matches := []dbmodel.Document{}
	for _, d := range mc.Documents {
		kindSet[d.Kind] = true
		if kind != "" && d.Kind != kind {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(d.RelPath), strings.ToLower(q)) {
			continue
		}
		matches = append(matches, d)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ID > matches[j].ID
	})
	if len(matches) > dbmodel.DefaultListLimit {
		matches = matches[:dbmodel.DefaultListLimit]
	}
	kinds := make([]string, 0, len(kindSet))
	for k := range kindSet {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	out := &model.APIDocumentList{
		Total:      len(mc.Documents),
		Query:      q,
		Kind:       kind,
		Kinds:      kinds,
		CanReindex: u.IsAdmin(),
	}
	var err error
	if out.Documents, err = importDocuments(matches); err != nil {
		return nil, err
	}
	if run, ok := mc.Operations[dbmodel.OperationFilesReindex]; ok {
		out.LastReindex = &model.APIReindexResult{}
		if err = out.LastReindex.Import(run); err != nil {
			return nil, internalError(err, "problem converting last reindex")
		}
	}
	return out, nil
}

func (mc *MockConnector) ReindexDocuments(_ context.Context, u *dbmodel.User) (*model.APIReindexResult, error) {
	if err := requireAdmin(u, "reindex files"); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.Operations == nil {
		mc.Operations = map[string]dbmodel.OperationRun{}
	}
	res := mc.ReindexResult
	mc.Operations[dbmodel.OperationFilesReindex] = dbmodel.OperationRun{
		ID:      dbmodel.OperationFilesReindex,
		Reindex: &res,
	}

	out := &model.APIReindexResult{}
	if err := out.Import(res); err != nil {
		return nil, internalError(err, "problem converting reindex result")
	}
	return out, nil
}

func (mc *MockConnector) FindDocumentByID(_ context.Context, u *dbmodel.User, id int) (*model.APIDocumentDetail, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	doc, err := mc.findDocument(id)
	if err != nil {
		return nil, err
	}
	return documentDetail(mc.Root, *doc)
}

func (mc *MockConnector) OpenDocument(_ context.Context, u *dbmodel.User, id int) (*DocumentFile, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	doc, err := mc.findDocument(id)
	if err != nil {
		return nil, err
	}
	return openDocument(mc.Root, *doc)
}
