package data

import (
	"context"
	"sort"
	"strings"

	"github.com/discovery-tools/scout/ingest"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/pkg/errors"
)

func importCompanyList(companies []dbmodel.Company) ([]model.APICompany, error) {
	out := make([]model.APICompany, 0, len(companies))
	for _, c := range companies {
		api := model.APICompany{}
		if err := api.Import(c); err != nil {
			return nil, internalError(err, "problem converting company %d", c.ID)
		}
		// rows stay in the detail views
		api.Raw = nil
		out = append(out, api)
	}
	return out, nil
}

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

func (dbc *DBConnector) FindCompanies(ctx context.Context, u *dbmodel.User, q, icp string) (*model.APICompanyList, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	query := dbmodel.CompanyQuery{Query: strings.TrimSpace(q), ICP: strings.TrimSpace(icp)}

	total, err := dbmodel.CountCompanies(ctx, dbc.env)
	if err != nil {
		return nil, internalError(err, "problem counting companies")
	}
	companies, err := dbmodel.FindCompanies(ctx, dbc.env, query)
	if err != nil {
		return nil, internalError(err, "problem finding companies")
	}

	out := &model.APICompanyList{
		Total:     total,
		Query:     query.Query,
		ICP:       query.ICP,
		CanImport: u.IsAdmin(),
	}
	if out.Companies, err = importCompanyList(companies); err != nil {
		return nil, err
	}

	run, err := dbmodel.FindOperationRun(ctx, dbc.env, dbmodel.OperationCompanyImport)
	if err != nil {
		return nil, internalError(err, "problem finding last company import")
	}
	if run != nil {
		out.LastImport = &model.APIImportResult{}
		if err = out.LastImport.Import(*run); err != nil {
			return nil, internalError(err, "problem converting last company import")
		}
	}
	return out, nil
}

func (dbc *DBConnector) ImportCompanies(ctx context.Context, u *dbmodel.User) (*model.APIImportResult, error) {
	if err := requireAdmin(u, "import companies"); err != nil {
		return nil, err
	}

	conf := dbc.env.GetConfig()
	res, err := ingest.ImportCompanies(ctx, dbc.env, conf.ResolvePath(conf.CompaniesCSV), 0)
	if err != nil {
		if errors.Cause(err) == ingest.ErrSourceNotFound {
			return nil, notFound("company export '%s' not found", conf.CompaniesCSV)
		}
		return nil, internalError(err, "problem importing companies")
	}

	out := &model.APIImportResult{}
	if err = out.Import(res); err != nil {
		return nil, internalError(err, "problem converting import result")
	}
	return out, nil
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

func (mc *MockConnector) FindCompanies(_ context.Context, u *dbmodel.User, q, icp string) (*model.APICompanyList, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	q = strings.TrimSpace(q)
	icp = strings.TrimSpace(icp)
	needle := strings.ToLower(q)
	matches := []dbmodel.Company{}
	for _, c := range mc.Companies {
		if icp != "" && c.ICP != icp {
			continue
		}
		website := ""
		if c.Website != nil {
			website = *c.Website
		}
		if needle != "" && !strings.Contains(strings.ToLower(c.Name), needle) && !strings.Contains(strings.ToLower(website), needle) {
			continue
		}
		matches = append(matches, c)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return newer(matches[i].CreatedAt, matches[i].ID, matches[j].CreatedAt, matches[j].ID)
	})
	if len(matches) > dbmodel.DefaultListLimit {
		matches = matches[:dbmodel.DefaultListLimit]
	}

	out := &model.APICompanyList{
		Total:     len(mc.Companies),
		Query:     q,
		ICP:       icp,
		CanImport: u.IsAdmin(),
	}
	var err error
	if out.Companies, err = importCompanyList(matches); err != nil {
		return nil, err
	}
	if run, ok := mc.Operations[dbmodel.OperationCompanyImport]; ok {
		out.LastImport = &model.APIImportResult{}
		if err = out.LastImport.Import(run); err != nil {
			return nil, internalError(err, "problem converting last company import")
		}
	}
	return out, nil
}

func (mc *MockConnector) ImportCompanies(_ context.Context, u *dbmodel.User) (*model.APIImportResult, error) {
	if err := requireAdmin(u, "import companies"); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.ImportResult == nil {
		return nil, notFound("company export not found")
	}
	if mc.Operations == nil {
		mc.Operations = map[string]dbmodel.OperationRun{}
	}
	res := *mc.ImportResult
	mc.Operations[dbmodel.OperationCompanyImport] = dbmodel.OperationRun{
		ID:     dbmodel.OperationCompanyImport,
		Import: &res,
	}

	out := &model.APIImportResult{}
	if err := out.Import(res); err != nil {
		return nil, internalError(err, "problem converting import result")
	}
	return out, nil
}
