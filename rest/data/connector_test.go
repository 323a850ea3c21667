package data

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/discovery-tools/scout"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/pgsink"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/suite"
)

const testDBName = "scout_rest_data_test"

type connectorSuite struct {
	ctx    context.Context
	cancel context.CancelFunc
	root   string
	sc     Connector

	// per backend
	setupConnector func(*connectorSuite) Connector
	teardown       func(*connectorSuite)
	seedCompanies  func(*connectorSuite, []dbmodel.Company) []dbmodel.Company
	seedDocuments  func(*connectorSuite, []dbmodel.FileMeta)

	env   scout.Environment
	mock  *MockConnector
	admin *dbmodel.User
	owner *dbmodel.User
	other *dbmodel.User
	suite.Suite
}

func TestConnectorSuiteDB(t *testing.T) {
	s := &connectorSuite{
		setupConnector: func(s *connectorSuite) Connector {
			var err error
			s.env, err = scout.NewEnvironment(s.ctx, testDBName, &scout.Configuration{
				MongoDBURI:   "mongodb://localhost:27017",
				DatabaseName: testDBName,
				NumWorkers:   2,
				WorkingRoot:  s.root,
			})
			s.Require().NoError(err)
			s.Require().NoError(s.env.GetDB().Drop(s.ctx))
			s.Require().NoError(dbmodel.EnsureIndexes(s.ctx, s.env))
			return CreateDBConnector(s.env)
		},
		teardown: func(s *connectorSuite) {
			s.NoError(s.env.GetDB().Drop(s.ctx))
			s.NoError(s.env.Close(s.ctx))
		},
		seedCompanies: func(s *connectorSuite, companies []dbmodel.Company) []dbmodel.Company {
			s.Require().NoError(dbmodel.InsertCompanies(s.ctx, s.env, companies))
			return companies
		},
		seedDocuments: func(s *connectorSuite, files []dbmodel.FileMeta) {
			_, err := dbmodel.SyncDocuments(s.ctx, s.env, files)
			s.Require().NoError(err)
		},
	}
	suite.Run(t, s)
}

func TestConnectorSuiteMock(t *testing.T) {
	s := &connectorSuite{
		setupConnector: func(s *connectorSuite) Connector {
			s.mock = &MockConnector{
				Root:      s.root,
				SinkError: pgsink.ErrNotConfigured,
			}
			return s.mock
		},
		teardown: func(*connectorSuite) {},
		seedCompanies: func(s *connectorSuite, companies []dbmodel.Company) []dbmodel.Company {
			for i := range companies {
				companies[i].ID = 1000 + i
				companies[i].CreatedAt = time.Now().UTC()
			}
			s.mock.Companies = append(s.mock.Companies, companies...)
			return companies
		},
		seedDocuments: func(s *connectorSuite, files []dbmodel.FileMeta) {
			for i, f := range files {
				s.mock.Documents = append(s.mock.Documents, dbmodel.Document{
					ID:        2000 + i,
					RelPath:   f.RelPath,
					Kind:      f.Kind,
					Ext:       f.Ext,
					SizeBytes: f.SizeBytes,
					MtimeUnix: f.MtimeUnix,
				})
			}
		},
	}
	suite.Run(t, s)
}

func (s *connectorSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	var err error
	s.root, err = os.MkdirTemp("", "scout-connector")
	s.Require().NoError(err)
	s.sc = s.setupConnector(s)

	s.admin, err = s.sc.Login(s.ctx, "admin@example.com", scout.RoleAdmin)
	s.Require().NoError(err)
	s.owner, err = s.sc.Login(s.ctx, "owner@example.com", scout.RoleBizDev)
	s.Require().NoError(err)
	s.other, err = s.sc.Login(s.ctx, "other@example.com", scout.RoleOutreach)
	s.Require().NoError(err)
}

func (s *connectorSuite) TearDownTest() {
	s.teardown(s)
	s.NoError(os.RemoveAll(s.root))
	s.cancel()
}

func (s *connectorSuite) requireStatus(err error, status int) {
	s.Require().Error(err)
	resp, ok := err.(gimlet.ErrorResponse)
	s.Require().True(ok, "unexpected error type %T", err)
	s.Equal(status, resp.StatusCode, resp.Message)
}

func (s *connectorSuite) createHypothesis(u *dbmodel.User, title string) *model.APIHypothesisDetail {
	h, err := s.sc.CreateHypothesis(s.ctx, u, model.APIHypothesisInput{Title: model.NewFormValue(title)})
	s.Require().NoError(err)
	return h
}

func idValue(id int) model.FormValue { return model.NewFormValue(strconv.Itoa(id)) }

func (s *connectorSuite) TestLogin() {
	_, err := s.sc.Login(s.ctx, "  ", scout.RoleAdmin)
	s.requireStatus(err, http.StatusBadRequest)

	again, err := s.sc.Login(s.ctx, " Owner@Example.com ", scout.RoleMarketing)
	s.Require().NoError(err)
	s.Equal(s.owner.ID, again.ID)
	s.Equal(scout.RoleMarketing, again.Role)

	found, err := s.sc.FindUserByID(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Equal("owner@example.com", found.Email)

	_, err = s.sc.FindUserByID(s.ctx, 999999)
	s.requireStatus(err, http.StatusNotFound)
}

func (s *connectorSuite) TestAPIKeys() {
	_, err := s.sc.CreateAPIKey(s.ctx, nil)
	s.requireStatus(err, http.StatusUnauthorized)

	key, err := s.sc.CreateAPIKey(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal("owner@example.com", key.User)
	s.NotEmpty(key.Key)

	u, err := s.sc.FindUserByAPIKey(s.ctx, "owner@example.com", key.Key)
	s.Require().NoError(err)
	s.Equal(s.owner.ID, u.ID)

	_, err = s.sc.FindUserByAPIKey(s.ctx, "other@example.com", key.Key)
	s.requireStatus(err, http.StatusNotFound)
	_, err = s.sc.FindUserByAPIKey(s.ctx, "owner@example.com", "")
	s.requireStatus(err, http.StatusNotFound)

	rotated, err := s.sc.CreateAPIKey(s.ctx, s.owner)
	s.Require().NoError(err)
	s.NotEqual(key.Key, rotated.Key)
	_, err = s.sc.FindUserByAPIKey(s.ctx, "owner@example.com", key.Key)
	s.requireStatus(err, http.StatusNotFound)
}

func (s *connectorSuite) TestHypothesisVisibility() {
	_, err := s.sc.CreateHypothesis(s.ctx, s.owner, model.APIHypothesisInput{Title: model.NewFormValue("   ")})
	s.requireStatus(err, http.StatusBadRequest)
	_, err = s.sc.FindHypotheses(s.ctx, nil)
	s.requireStatus(err, http.StatusUnauthorized)

	h := s.createHypothesis(s.owner, "Finance teams reconcile by hand")
	s.Equal(dbmodel.DecisionOpen, utility.FromStringPtr(h.Decision))
	s.Equal(dbmodel.HypothesisStatusDraft, utility.FromStringPtr(h.Status))

	_, err = s.sc.FindHypothesisByID(s.ctx, s.other, h.ID)
	s.requireStatus(err, http.StatusNotFound)
	found, err := s.sc.FindHypothesisByID(s.ctx, s.admin, h.ID)
	s.Require().NoError(err)
	s.Equal(h.ID, found.ID)

	mine, err := s.sc.FindHypotheses(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Len(mine, 1)
	theirs, err := s.sc.FindHypotheses(s.ctx, s.other)
	s.Require().NoError(err)
	s.Len(theirs, 0)
	all, err := s.sc.FindHypotheses(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *connectorSuite) TestHypothesisNamesAndCard() {
	vp, err := s.sc.CreateVPPoint(s.ctx, s.admin, model.APIVPPointInput{Name: model.NewFormValue("Speed")})
	s.Require().NoError(err)

	h, err := s.sc.CreateHypothesis(s.ctx, s.owner, model.APIHypothesisInput{
		Title:     model.NewFormValue("Close faster"),
		VPPointID: idValue(vp.ID),
		ICPID:     model.NewFormValue("12a"),
		StartDate: model.NewFormValue("2024-03-01"),
	})
	s.Require().NoError(err)
	s.Equal("Speed", utility.FromStringPtr(h.VPPointName))
	s.Nil(h.ICPID)
	s.Require().NotNil(h.StartDate.Time())
	s.Require().NotNil(h.CardFile)
	s.Equal(strconv.Itoa(h.ID)+"-Closefaster.md", *h.CardFile)

	card, err := s.sc.FindCard(s.ctx, s.owner, h.ID)
	s.Require().NoError(err)
	s.Contains(card.Content, "# Hypothesis #"+strconv.Itoa(h.ID)+": Close faster")
	s.Contains(card.Content, "- **VP Point**: Speed")
	s.Contains(card.Content, "## Facts")
	s.Contains(card.Path, *h.CardFile)

	_, err = s.sc.FindCard(s.ctx, s.other, h.ID)
	s.requireStatus(err, http.StatusNotFound)

	_, err = s.sc.SetHypothesisDecision(s.ctx, s.owner, h.ID, model.APIDecisionInput{Decision: "maybe"})
	s.requireStatus(err, http.StatusBadRequest)
	decided, err := s.sc.SetHypothesisDecision(s.ctx, s.owner, h.ID, model.APIDecisionInput{Decision: " Validated ", Notes: "3 of 5"})
	s.Require().NoError(err)
	s.Equal(dbmodel.DecisionValidated, utility.FromStringPtr(decided.Decision))
	s.Equal("3 of 5", utility.FromStringPtr(decided.DecisionNotes))

	refreshed, err := s.sc.RefreshCard(s.ctx, s.owner, h.ID)
	s.Require().NoError(err)
	s.Contains(refreshed.Content, "- **Decision**: validated")
}

func (s *connectorSuite) TestScript() {
	h := s.createHypothesis(s.owner, "Scripted")

	script, err := s.sc.FindScript(s.ctx, s.owner, h.ID)
	s.Require().NoError(err)
	s.Equal(h.ID, script.HypothesisID)
	s.Empty(script.Content)

	_, err = s.sc.SaveScript(s.ctx, s.other, h.ID, "hi")
	s.requireStatus(err, http.StatusNotFound)

	_, err = s.sc.SaveScript(s.ctx, s.owner, h.ID, "Ask about month end")
	s.Require().NoError(err)
	saved, err := s.sc.SaveScript(s.ctx, s.owner, h.ID, "Ask about close")
	s.Require().NoError(err)
	s.Equal("Ask about close", saved.Content)

	script, err = s.sc.FindScript(s.ctx, s.admin, h.ID)
	s.Require().NoError(err)
	s.Equal("Ask about close", script.Content)
}

func (s *connectorSuite) TestCatalogs() {
	_, err := s.sc.CreateVPPoint(s.ctx, s.owner, model.APIVPPointInput{Name: model.NewFormValue("Speed")})
	s.requireStatus(err, http.StatusForbidden)
	_, err = s.sc.CreateICP(s.ctx, nil, model.APIICPInput{Name: model.NewFormValue("CFO")})
	s.requireStatus(err, http.StatusUnauthorized)
	_, err = s.sc.CreateICP(s.ctx, s.admin, model.APIICPInput{})
	s.requireStatus(err, http.StatusBadRequest)

	_, err = s.sc.CreateICP(s.ctx, s.admin, model.APIICPInput{Name: model.NewFormValue("CFO"), Role: model.NewFormValue("finance")})
	s.Require().NoError(err)
	_, err = s.sc.CreateICP(s.ctx, s.admin, model.APIICPInput{Name: model.NewFormValue("CFO")})
	s.requireStatus(err, http.StatusBadRequest)
	icps, err := s.sc.FindICPs(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(icps, 1)
	s.Equal("finance", utility.FromStringPtr(icps[0].Role))

	v, err := s.sc.CreateVertical(s.ctx, s.admin, model.APIVerticalInput{
		Name:    model.NewFormValue("Fintech"),
		SubName: model.NewFormValue("Payments"),
	})
	s.Require().NoError(err)
	s.Require().Len(v.Subs, 1)
	s.Equal("Payments", utility.FromStringPtr(v.Subs[0].Name))

	v, err = s.sc.CreateSubVertical(s.ctx, s.admin, v.ID, model.APISubVerticalInput{Name: model.NewFormValue(" ")})
	s.Require().NoError(err)
	s.Len(v.Subs, 1)
	v, err = s.sc.CreateSubVertical(s.ctx, s.admin, v.ID, model.APISubVerticalInput{Name: model.NewFormValue("Lending")})
	s.Require().NoError(err)
	s.Len(v.Subs, 2)
	_, err = s.sc.CreateSubVertical(s.ctx, s.admin, v.ID, model.APISubVerticalInput{Name: model.NewFormValue("Lending")})
	s.requireStatus(err, http.StatusBadRequest)
	_, err = s.sc.CreateSubVertical(s.ctx, s.admin, 999999, model.APISubVerticalInput{Name: model.NewFormValue("x")})
	s.requireStatus(err, http.StatusNotFound)
	_, err = s.sc.CreateSubVertical(s.ctx, s.owner, v.ID, model.APISubVerticalInput{Name: model.NewFormValue("x")})
	s.requireStatus(err, http.StatusForbidden)

	verticals, err := s.sc.FindVerticals(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(verticals, 1)
	s.Len(verticals[0].Subs, 2)
}

func (s *connectorSuite) TestTALAndCalls() {
	companies := s.seedCompanies(s, []dbmodel.Company{
		{Name: "Acme", ICP: "CFO", Website: utility.ToStringPtr("acme.io")},
		{Name: "Globex", ICP: "CFO"},
	})
	h := s.createHypothesis(s.owner, "Reconciliation pain")

	tal, err := s.sc.FindTAL(s.ctx, s.owner, h.ID)
	s.Require().NoError(err)
	s.Equal(dbmodel.TALName(h.ID), utility.FromStringPtr(tal.Name))
	s.Empty(tal.Accounts)

	for _, in := range []model.APITALAccountInput{
		{CompanyID: model.NewFormValue("acme")},
		{CompanyID: idValue(999999)},
	} {
		tal, err = s.sc.AddTALAccount(s.ctx, s.owner, h.ID, in)
		s.Require().NoError(err)
		s.Empty(tal.Accounts)
	}

	in := model.APITALAccountInput{
		CompanyID: idValue(companies[0].ID),
		FitReason: model.NewFormValue("fintech"),
		PainHint:  model.NewFormValue("manual recon"),
	}
	_, err = s.sc.AddTALAccount(s.ctx, s.other, h.ID, in)
	s.requireStatus(err, http.StatusNotFound)
	tal, err = s.sc.AddTALAccount(s.ctx, s.owner, h.ID, in)
	s.Require().NoError(err)
	tal, err = s.sc.AddTALAccount(s.ctx, s.owner, h.ID, in)
	s.Require().NoError(err)
	s.Require().Len(tal.Accounts, 1)
	account := tal.Accounts[0]
	s.Equal("fintech", utility.FromStringPtr(account.FitReason))
	s.Equal("manual recon", utility.FromStringPtr(account.PainHint))
	s.Equal(dbmodel.TALAccountNotContacted, utility.FromStringPtr(account.Status))
	s.Require().NotNil(account.Company)
	s.Equal("Acme", utility.FromStringPtr(account.Company.Name))

	call, err := s.sc.CreateCall(s.ctx, s.owner, h.ID, model.APICallInput{
		TALAccountID:  idValue(account.ID),
		CallDate:      model.NewFormValue("2024-03-04"),
		PainConfirmed: model.NewFormValue("on"),
		Severity:      model.NewFormValue("4"),
	})
	s.Require().NoError(err)
	s.Equal(account.ID, utility.FromIntPtr(call.TALAccountID))
	s.Equal(companies[0].ID, utility.FromIntPtr(call.CompanyID))
	s.Require().NotNil(call.CompanyRef)
	s.Equal("Acme", utility.FromStringPtr(call.CompanyRef.Name))
	// the free-text company field is not derived from the account
	s.Empty(utility.FromStringPtr(call.Company))
	s.Equal(4, call.Severity)
	s.True(call.PainConfirmed)

	call, err = s.sc.CreateCall(s.ctx, s.owner, h.ID, model.APICallInput{
		TALAccountID: model.NewFormValue("none"),
		FollowUp:     model.NewFormValue("on"),
		Severity:     model.NewFormValue("high"),
	})
	s.Require().NoError(err)
	s.Nil(call.TALAccountID)
	s.Nil(call.CompanyRef)
	s.Equal(0, call.Severity)

	list, err := s.sc.FindCalls(s.ctx, s.owner, h.ID)
	s.Require().NoError(err)
	s.Len(list.Calls, 2)
	s.Len(list.TALAccounts, 1)

	metrics, err := s.sc.GetMetrics(s.ctx, s.owner, h.ID)
	s.Require().NoError(err)
	s.Equal(h.ID, metrics.HypothesisID)
	s.Equal(2, metrics.TotalCalls)
	s.Equal(50, metrics.PainRate)
	s.Equal(50, metrics.FollowRate)
	s.Equal(1, utility.FromIntPtr(metrics.FirstPainCall))
	s.Equal(2, utility.FromIntPtr(metrics.FirstFollowCall))
	s.Equal(dbmodel.DecisionHint, metrics.DecisionHint)

	weekly, err := s.sc.FindWeeklyMetrics(s.ctx, s.owner, h.ID)
	s.Require().NoError(err)
	s.Empty(weekly)
	_, err = s.sc.GetMetrics(s.ctx, s.other, h.ID)
	s.requireStatus(err, http.StatusNotFound)
}

func (s *connectorSuite) TestCallIgnoresAccountsOfOtherLists() {
	companies := s.seedCompanies(s, []dbmodel.Company{{Name: "Acme"}})
	first := s.createHypothesis(s.owner, "First")
	second := s.createHypothesis(s.owner, "Second")

	tal, err := s.sc.AddTALAccount(s.ctx, s.owner, first.ID, model.APITALAccountInput{CompanyID: idValue(companies[0].ID)})
	s.Require().NoError(err)
	s.Require().Len(tal.Accounts, 1)

	call, err := s.sc.CreateCall(s.ctx, s.owner, second.ID, model.APICallInput{TALAccountID: idValue(tal.Accounts[0].ID)})
	s.Require().NoError(err)
	s.Nil(call.TALAccountID)
	s.Nil(call.CompanyID)
}

func (s *connectorSuite) TestCompanies() {
	s.seedCompanies(s, []dbmodel.Company{
		{Name: "Acme", ICP: "CFO", Website: utility.ToStringPtr("acme.io")},
		{Name: "Globex", ICP: "COO", Website: utility.ToStringPtr("globex.com")},
		{Name: "Initech", ICP: "CFO"},
	})

	list, err := s.sc.FindCompanies(s.ctx, s.owner, "", "")
	s.Require().NoError(err)
	s.Equal(3, list.Total)
	s.Len(list.Companies, 3)
	s.False(list.CanImport)
	s.Nil(list.LastImport)

	list, err = s.sc.FindCompanies(s.ctx, s.admin, " ACME ", "")
	s.Require().NoError(err)
	s.True(list.CanImport)
	s.Equal("ACME", list.Query)
	s.Require().Len(list.Companies, 1)
	s.Equal("Acme", utility.FromStringPtr(list.Companies[0].Name))

	list, err = s.sc.FindCompanies(s.ctx, s.owner, ".com", "")
	s.Require().NoError(err)
	s.Len(list.Companies, 1)

	list, err = s.sc.FindCompanies(s.ctx, s.owner, "", "CFO")
	s.Require().NoError(err)
	s.Len(list.Companies, 2)
	s.Equal(3, list.Total)

	_, err = s.sc.FindCompanies(s.ctx, nil, "", "")
	s.requireStatus(err, http.StatusUnauthorized)
	_, err = s.sc.ImportCompanies(s.ctx, s.owner)
	s.requireStatus(err, http.StatusForbidden)
	_, err = s.sc.ImportCompanies(s.ctx, s.admin)
	s.requireStatus(err, http.StatusNotFound)
}

func (s *connectorSuite) TestDocuments() {
	s.Require().NoError(os.MkdirAll(filepath.Join(s.root, "docs"), 0755))
	s.Require().NoError(os.WriteFile(filepath.Join(s.root, "docs", "plan.md"), []byte("# plan"), 0644))
	s.Require().NoError(os.WriteFile(filepath.Join(s.root, "deck.pdf"), []byte("%PDF"), 0644))

	s.seedDocuments(s, []dbmodel.FileMeta{
		{RelPath: "docs/plan.md", Ext: "md", Kind: "doc", SizeBytes: 6, MtimeUnix: 1700000100},
		{RelPath: "deck.pdf", Ext: "pdf", Kind: "pdf", SizeBytes: 4, MtimeUnix: 1700000000},
		{RelPath: "../outside.md", Ext: "md", Kind: "doc", SizeBytes: 1, MtimeUnix: 1600000000},
	})

	list, err := s.sc.FindDocuments(s.ctx, s.owner, "", "")
	s.Require().NoError(err)
	s.Equal(3, list.Total)
	s.Equal([]string{"doc", "pdf"}, list.Kinds)
	s.False(list.CanReindex)
	s.Require().Len(list.Documents, 3)
	// newest index entry first even though plan.md has the latest mtime
	s.Equal("../outside.md", list.Documents[0].RelPath)
	s.Equal("deck.pdf", list.Documents[1].RelPath)
	s.Equal("docs/plan.md", list.Documents[2].RelPath)

	byPath := map[string]int{}
	for _, d := range list.Documents {
		byPath[d.RelPath] = d.ID
	}

	list, err = s.sc.FindDocuments(s.ctx, s.owner, "PLAN", "")
	s.Require().NoError(err)
	s.Len(list.Documents, 1)
	list, err = s.sc.FindDocuments(s.ctx, s.owner, "", "pdf")
	s.Require().NoError(err)
	s.Len(list.Documents, 1)

	doc, err := s.sc.FindDocumentByID(s.ctx, s.owner, byPath["docs/plan.md"])
	s.Require().NoError(err)
	s.True(doc.Previewable)
	s.Require().NotNil(doc.Preview)
	s.Equal("# plan", *doc.Preview)
	s.Equal(DownloadPath(doc.ID), doc.DownloadURL)

	doc, err = s.sc.FindDocumentByID(s.ctx, s.owner, byPath["deck.pdf"])
	s.Require().NoError(err)
	s.False(doc.Previewable)
	s.Nil(doc.Preview)

	file, err := s.sc.OpenDocument(s.ctx, s.owner, byPath["deck.pdf"])
	s.Require().NoError(err)
	data, err := io.ReadAll(file.Content)
	s.NoError(file.Content.Close())
	s.Require().NoError(err)
	s.Equal("%PDF", string(data))
	s.Equal("deck.pdf", file.Name)

	_, err = s.sc.OpenDocument(s.ctx, s.owner, byPath["../outside.md"])
	s.requireStatus(err, http.StatusNotFound)
	_, err = s.sc.FindDocumentByID(s.ctx, s.owner, 999999)
	s.requireStatus(err, http.StatusNotFound)
	_, err = s.sc.ReindexDocuments(s.ctx, s.owner)
	s.requireStatus(err, http.StatusForbidden)
}

func (s *connectorSuite) TestDebugInsert() {
	_, err := s.sc.InsertDebugEvent(s.ctx, nil, nil)
	s.requireStatus(err, http.StatusUnauthorized)
	_, err = s.sc.InsertDebugEvent(s.ctx, s.owner, []byte(`{}`))
	s.requireStatus(err, http.StatusForbidden)

	_, err = s.sc.InsertDebugEvent(s.ctx, s.admin, []byte(`{"table": "events"}`))
	s.requireStatus(err, http.StatusInternalServerError)
	s.Contains(err.Error(), "Supabase insert failed")
}

func TestMockDebugInsertRecordsEvent(t *testing.T) {
	mc := &MockConnector{}
	admin, err := mc.Login(context.Background(), "admin@example.com", scout.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	res, err := mc.InsertDebugEvent(context.Background(), admin, []byte(`{"table": "events", "record": {"a": 1}}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Table != "events" || res.InsertedRows != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(mc.Events) != 1 || mc.Events[0].Record["a"] != float64(1) {
		t.Fatalf("unexpected events %+v", mc.Events)
	}
}
