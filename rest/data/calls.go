package data

import (
	"context"
	"sort"

	"github.com/discovery-tools/scout"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/anser/db"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

func importCalls(calls []dbmodel.Call, companies map[int]*model.APICompany) ([]model.APICall, error) {
	out := make([]model.APICall, 0, len(calls))
	for _, c := range calls {
		api := model.APICall{}
		if err := api.Import(c); err != nil {
			return nil, internalError(err, "problem converting call %d", c.ID)
		}
		if c.CompanyID != nil {
			api.CompanyRef = companies[*c.CompanyID]
		}
		out = append(out, api)
	}
	return out, nil
}

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

func (dbc *DBConnector) FindCalls(ctx context.Context, u *dbmodel.User, hypothesisID int) (*model.APICallList, error) {
	h, err := dbc.findVisibleHypothesis(ctx, u, hypothesisID)
	if err != nil {
		return nil, err
	}

	out := &model.APICallList{
		HypothesisID: h.ID,
		TALAccounts:  []model.APITALAccount{},
	}
	tal, err := dbmodel.FindTAL(ctx, dbc.env, h.ID)
	if err == nil {
		if out.TALAccounts, err = dbc.talAccounts(ctx, tal.ID); err != nil {
			return nil, err
		}
	} else if !db.ResultsNotFound(errors.Cause(err)) {
		return nil, internalError(err, "problem finding tal of hypothesis %d", h.ID)
	}

	calls, err := dbmodel.FindCalls(ctx, dbc.env, h.ID, true)
	if err != nil {
		return nil, internalError(err, "problem finding calls of hypothesis %d", h.ID)
	}
	ids := []int{}
	for _, c := range calls {
		if c.CompanyID != nil {
			ids = append(ids, *c.CompanyID)
		}
	}
	companies, err := dbmodel.FindCompaniesByIDs(ctx, dbc.env, ids)
	if err != nil {
		return nil, internalError(err, "problem finding companies of calls")
	}
	apiCompanies, err := importCompanies(companies)
	if err != nil {
		return nil, err
	}
	if out.Calls, err = importCalls(calls, apiCompanies); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveAccount fills in the account and company id of the call when the
// account belongs to the hypothesis' list. Anything else leaves the call
// unattached.
func (dbc *DBConnector) resolveAccount(ctx context.Context, c *dbmodel.Call, accountID *int) error {
	if accountID == nil {
		return nil
	}
	acct, err := dbmodel.FindTALAccount(ctx, dbc.env, *accountID)
	if db.ResultsNotFound(errors.Cause(err)) {
		return nil
	} else if err != nil {
		return internalError(err, "problem finding tal account %d", *accountID)
	}
	tal, err := dbmodel.FindTAL(ctx, dbc.env, *c.HypothesisID)
	if db.ResultsNotFound(errors.Cause(err)) {
		return nil
	} else if err != nil {
		return internalError(err, "problem finding tal of hypothesis %d", *c.HypothesisID)
	}
	if acct.TALID != tal.ID {
		grip.Debug(message.Fields{
			"message":     "ignoring account from another list",
			"tal_account": acct.ID,
			"hypothesis":  *c.HypothesisID,
		})
		return nil
	}

	c.TALAccountID = utility.ToIntPtr(acct.ID)
	c.CompanyID = utility.ToIntPtr(acct.CompanyID)
	return nil
}

func (dbc *DBConnector) CreateCall(ctx context.Context, u *dbmodel.User, hypothesisID int, in model.APICallInput) (*model.APICall, error) {
	h, err := dbc.findVisibleHypothesis(ctx, u, hypothesisID)
	if err != nil {
		return nil, err
	}

	c := in.Export(u.ID, h.ID)
	if err = dbc.resolveAccount(ctx, c, in.TALAccountID.ID()); err != nil {
		return nil, err
	}
	c.Setup(dbc.env)
	if err = c.SaveNew(ctx); err != nil {
		return nil, internalError(err, "problem saving call")
	}
	dbc.addStat(scout.StatsCacheCalls, scout.Stat{
		Count:        1,
		User:         u.Email,
		HypothesisID: h.ID,
		CompanyID:    c.CompanyID,
	})

	out := &model.APICall{}
	if err = out.Import(c); err != nil {
		return nil, internalError(err, "problem converting call")
	}
	if c.CompanyID != nil {
		company, err := dbmodel.FindCompany(ctx, dbc.env, *c.CompanyID)
		if err == nil {
			out.CompanyRef = &model.APICompany{}
			if err = out.CompanyRef.Import(company); err != nil {
				return nil, internalError(err, "problem converting company")
			}
		}
	}
	return out, nil
}

func (dbc *DBConnector) GetMetrics(ctx context.Context, u *dbmodel.User, hypothesisID int) (*model.APIMetrics, error) {
	h, err := dbc.findVisibleHypothesis(ctx, u, hypothesisID)
	if err != nil {
		return nil, err
	}
	m, err := dbmodel.GetHypothesisMetrics(ctx, dbc.env, h.ID)
	if err != nil {
		return nil, internalError(err, "problem computing metrics of hypothesis %d", h.ID)
	}

	out := &model.APIMetrics{}
	if err = out.Import(m); err != nil {
		return nil, internalError(err, "problem converting metrics")
	}
	out.HypothesisID = h.ID
	return out, nil
}

func (dbc *DBConnector) FindWeeklyMetrics(ctx context.Context, u *dbmodel.User, hypothesisID int) ([]model.APIWeeklyMetric, error) {
	h, err := dbc.findVisibleHypothesis(ctx, u, hypothesisID)
	if err != nil {
		return nil, err
	}
	weekly, err := dbmodel.FindWeeklyMetrics(ctx, dbc.env, h.ID)
	if err != nil {
		return nil, internalError(err, "problem finding weekly metrics of hypothesis %d", h.ID)
	}
	return importWeeklyMetrics(weekly)
}

func importWeeklyMetrics(weekly []dbmodel.WeeklyMetric) ([]model.APIWeeklyMetric, error) {
	out := make([]model.APIWeeklyMetric, 0, len(weekly))
	for _, w := range weekly {
		api := model.APIWeeklyMetric{}
		if err := api.Import(w); err != nil {
			return nil, internalError(err, "problem converting weekly metric")
		}
		out = append(out, api)
	}
	return out, nil
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

// callsOf returns the calls of the hypothesis oldest first by id, or newest
// first by creation time.
func (mc *MockConnector) callsOf(hypothesisID int, newestFirst bool) []dbmodel.Call {
	out := []dbmodel.Call{}
	for _, c := range mc.Calls {
		if c.HypothesisID != nil && *c.HypothesisID == hypothesisID {
			out = append(out, c)
		}
	}
	if newestFirst {
		sort.SliceStable(out, func(i, j int) bool {
			return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out
}

func (mc *MockConnector) apiCompaniesOf(calls []dbmodel.Call) (map[int]*model.APICompany, error) {
	companies := []dbmodel.Company{}
	for _, c := range calls {
		if c.CompanyID == nil {
			continue
		}
		if company := mc.findCompany(*c.CompanyID); company != nil {
			companies = append(companies, *company)
		}
	}
	return importCompanies(companies)
}

func (mc *MockConnector) FindCalls(_ context.Context, u *dbmodel.User, hypothesisID int) (*model.APICallList, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, hypothesisID)
	if err != nil {
		return nil, err
	}

	out := &model.APICallList{HypothesisID: h.ID}
	if out.TALAccounts, err = mc.apiTALAccounts(h.ID); err != nil {
		return nil, err
	}
	calls := mc.callsOf(h.ID, true)
	companies, err := mc.apiCompaniesOf(calls)
	if err != nil {
		return nil, err
	}
	if out.Calls, err = importCalls(calls, companies); err != nil {
		return nil, err
	}
	return out, nil
}

func (mc *MockConnector) CreateCall(_ context.Context, u *dbmodel.User, hypothesisID int, in model.APICallInput) (*model.APICall, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, hypothesisID)
	if err != nil {
		return nil, err
	}

	c := in.Export(u.ID, h.ID)
	if accountID := in.TALAccountID.ID(); accountID != nil {
		for _, acct := range mc.talAccounts(h.ID) {
			if acct.ID != *accountID {
				continue
			}
			c.TALAccountID = utility.ToIntPtr(acct.ID)
			c.CompanyID = utility.ToIntPtr(acct.CompanyID)
		}
	}
	c.ID = mc.nextID()
	mc.Calls = append(mc.Calls, *c)

	companies, err := mc.apiCompaniesOf([]dbmodel.Call{*c})
	if err != nil {
		return nil, err
	}
	calls, err := importCalls([]dbmodel.Call{*c}, companies)
	if err != nil {
		return nil, err
	}
	return &calls[0], nil
}

func (mc *MockConnector) GetMetrics(_ context.Context, u *dbmodel.User, hypothesisID int) (*model.APIMetrics, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, hypothesisID)
	if err != nil {
		return nil, err
	}
	out := &model.APIMetrics{}
	if err = out.Import(dbmodel.ComputeMetrics(mc.callsOf(h.ID, false))); err != nil {
		return nil, internalError(err, "problem converting metrics")
	}
	out.HypothesisID = h.ID
	return out, nil
}

func (mc *MockConnector) FindWeeklyMetrics(_ context.Context, u *dbmodel.User, hypothesisID int) ([]model.APIWeeklyMetric, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, hypothesisID)
	if err != nil {
		return nil, err
	}
	weekly := []dbmodel.WeeklyMetric{}
	for _, w := range mc.WeeklyMetrics {
		if w.HypothesisID == h.ID {
			weekly = append(weekly, w)
		}
	}
	sort.SliceStable(weekly, func(i, j int) bool { return weekly[i].WeekStart.After(weekly[j].WeekStart) })
	return importWeeklyMetrics(weekly)
}
