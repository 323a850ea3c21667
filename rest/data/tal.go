package data

import (
	"context"
	"sort"
	"time"

	"github.com/discovery-tools/scout"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/mongodb/anser/db"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

func importCompanies(companies []dbmodel.Company) (map[int]*model.APICompany, error) {
	out := map[int]*model.APICompany{}
	for _, c := range companies {
		api := &model.APICompany{}
		if err := api.Import(c); err != nil {
			return nil, internalError(err, "problem converting company %d", c.ID)
		}
		out[c.ID] = api
	}
	return out, nil
}

func importTALAccounts(accounts []dbmodel.TALAccount, companies map[int]*model.APICompany) ([]model.APITALAccount, error) {
	out := make([]model.APITALAccount, 0, len(accounts))
	for _, acct := range accounts {
		api := model.APITALAccount{}
		if err := api.Import(acct); err != nil {
			return nil, internalError(err, "problem converting tal account %d", acct.ID)
		}
		api.Company = companies[acct.CompanyID]
		out = append(out, api)
	}
	return out, nil
}

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

// talAccounts returns the converted accounts of the list, newest first.
func (dbc *DBConnector) talAccounts(ctx context.Context, talID int) ([]model.APITALAccount, error) {
	accounts, err := dbmodel.FindTALAccounts(ctx, dbc.env, talID)
	if err != nil {
		return nil, internalError(err, "problem finding accounts of tal %d", talID)
	}
	ids := make([]int, 0, len(accounts))
	for _, acct := range accounts {
		ids = append(ids, acct.CompanyID)
	}
	companies, err := dbmodel.FindCompaniesByIDs(ctx, dbc.env, ids)
	if err != nil {
		return nil, internalError(err, "problem finding companies of tal %d", talID)
	}
	apiCompanies, err := importCompanies(companies)
	if err != nil {
		return nil, err
	}
	return importTALAccounts(accounts, apiCompanies)
}

func (dbc *DBConnector) tal(ctx context.Context, h *dbmodel.Hypothesis) (*model.APITAL, error) {
	tal, err := dbmodel.GetOrCreateTAL(ctx, dbc.env, h)
	if err != nil {
		return nil, internalError(err, "problem finding tal of hypothesis %d", h.ID)
	}

	out := &model.APITAL{}
	if err = out.Import(tal); err != nil {
		return nil, internalError(err, "problem converting tal")
	}
	if out.Accounts, err = dbc.talAccounts(ctx, tal.ID); err != nil {
		return nil, err
	}
	return out, nil
}

func (dbc *DBConnector) FindTAL(ctx context.Context, u *dbmodel.User, hypothesisID int) (*model.APITAL, error) {
	h, err := dbc.findVisibleHypothesis(ctx, u, hypothesisID)
	if err != nil {
		return nil, err
	}
	return dbc.tal(ctx, h)
}

func (dbc *DBConnector) AddTALAccount(ctx context.Context, u *dbmodel.User, hypothesisID int, in model.APITALAccountInput) (*model.APITAL, error) {
	h, err := dbc.findVisibleHypothesis(ctx, u, hypothesisID)
	if err != nil {
		return nil, err
	}
	tal, err := dbmodel.GetOrCreateTAL(ctx, dbc.env, h)
	if err != nil {
		return nil, internalError(err, "problem finding tal of hypothesis %d", h.ID)
	}

	companyID := in.CompanyID.ID()
	if companyID == nil {
		return dbc.tal(ctx, h)
	}
	if _, err = dbmodel.FindCompany(ctx, dbc.env, *companyID); err != nil {
		if db.ResultsNotFound(errors.Cause(err)) {
			return dbc.tal(ctx, h)
		}
		return nil, internalError(err, "problem finding company %d", *companyID)
	}

	added, err := dbmodel.AddTALAccount(ctx, dbc.env, &dbmodel.TALAccount{
		TALID:     tal.ID,
		CompanyID: *companyID,
		FitReason: in.FitReason.String(),
		PainHint:  in.PainHint.String(),
	})
	if err != nil {
		return nil, internalError(err, "problem adding company %d to tal %d", *companyID, tal.ID)
	}
	if added {
		dbc.addStat(scout.StatsCacheTAL, scout.Stat{
			Count:        1,
			User:         u.Email,
			HypothesisID: h.ID,
			CompanyID:    companyID,
		})
	}
	grip.DebugWhen(!added, message.Fields{
		"message":    "company already in tal",
		"tal":        tal.ID,
		"company":    *companyID,
		"hypothesis": h.ID,
	})

	return dbc.tal(ctx, h)
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

func (mc *MockConnector) talAccounts(hypothesisID int) []dbmodel.TALAccount {
	tal, ok := mc.TALs[hypothesisID]
	if !ok {
		return nil
	}
	out := []dbmodel.TALAccount{}
	for _, acct := range mc.TALAccounts {
		if acct.TALID == tal.ID {
			out = append(out, acct)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func (mc *MockConnector) findCompany(id int) *dbmodel.Company {
	for i := range mc.Companies {
		if mc.Companies[i].ID == id {
			return &mc.Companies[i]
		}
	}
	return nil
}

func (mc *MockConnector) apiTALAccounts(hypothesisID int) ([]model.APITALAccount, error) {
	accounts := mc.talAccounts(hypothesisID)
	companies := []dbmodel.Company{}
	for _, acct := range accounts {
		if c := mc.findCompany(acct.CompanyID); c != nil {
			companies = append(companies, *c)
		}
	}
	apiCompanies, err := importCompanies(companies)
	if err != nil {
		return nil, err
	}
	return importTALAccounts(accounts, apiCompanies)
}

func (mc *MockConnector) getOrCreateTAL(h *dbmodel.Hypothesis) dbmodel.TAL {
	if mc.TALs == nil {
		mc.TALs = map[int]dbmodel.TAL{}
	}
	tal, ok := mc.TALs[h.ID]
	if !ok {
		tal = dbmodel.TAL{
			ID:           mc.nextID(),
			HypothesisID: h.ID,
			OwnerUserID:  h.OwnerUserID,
			Name:         dbmodel.TALName(h.ID),
			CreatedAt:    time.Now().UTC(),
		}
		mc.TALs[h.ID] = tal
	}
	return tal
}

func (mc *MockConnector) tal(h *dbmodel.Hypothesis) (*model.APITAL, error) {
	tal := mc.getOrCreateTAL(h)
	out := &model.APITAL{}
	if err := out.Import(tal); err != nil {
		return nil, internalError(err, "problem converting tal")
	}
	accounts, err := mc.apiTALAccounts(h.ID)
	if err != nil {
		return nil, err
	}
	out.Accounts = accounts
	return out, nil
}

func (mc *MockConnector) FindTAL(_ context.Context, u *dbmodel.User, hypothesisID int) (*model.APITAL, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, hypothesisID)
	if err != nil {
		return nil, err
	}
	return mc.tal(h)
}

func (mc *MockConnector) AddTALAccount(_ context.Context, u *dbmodel.User, hypothesisID int, in model.APITALAccountInput) (*model.APITAL, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, hypothesisID)
	if err != nil {
		return nil, err
	}
	tal := mc.getOrCreateTAL(h)

	companyID := in.CompanyID.ID()
	if companyID == nil || mc.findCompany(*companyID) == nil {
		return mc.tal(h)
	}
	for _, acct := range mc.TALAccounts {
		if acct.TALID == tal.ID && acct.CompanyID == *companyID {
			return mc.tal(h)
		}
	}

	mc.TALAccounts = append(mc.TALAccounts, dbmodel.TALAccount{
		ID:        mc.nextID(),
		TALID:     tal.ID,
		CompanyID: *companyID,
		FitReason: in.FitReason.String(),
		PainHint:  in.PainHint.String(),
		Status:    dbmodel.TALAccountNotContacted,
		CreatedAt: time.Now().UTC(),
	})
	return mc.tal(h)
}
