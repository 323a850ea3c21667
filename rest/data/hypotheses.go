package data

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/discovery-tools/scout/knowledge"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/discovery-tools/scout/units"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/anser/db"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

// findVisibleHypothesis returns the hypothesis when the user may see it.
func (dbc *DBConnector) findVisibleHypothesis(ctx context.Context, u *dbmodel.User, id int) (*dbmodel.Hypothesis, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}

	h := &dbmodel.Hypothesis{ID: id}
	h.Setup(dbc.env)
	if err := h.Find(ctx); err != nil {
		if db.ResultsNotFound(errors.Cause(err)) {
			return nil, hypothesisNotFound(id)
		}
		return nil, internalError(err, "problem finding hypothesis %d", id)
	}
	if !h.VisibleTo(u) {
		return nil, hypothesisNotFound(id)
	}
	return h, nil
}

// importHypotheses converts the hypotheses, resolving catalogue names in one
// query per catalogue.
func (dbc *DBConnector) importHypotheses(ctx context.Context, hs []dbmodel.Hypothesis) ([]model.APIHypothesis, error) {
	vpIDs, icpIDs, subIDs := []int{}, []int{}, []int{}
	for _, h := range hs {
		if h.VPPointID != nil {
			vpIDs = append(vpIDs, *h.VPPointID)
		}
		if h.ICPID != nil {
			icpIDs = append(icpIDs, *h.ICPID)
		}
		if h.SubVerticalID != nil {
			subIDs = append(subIDs, *h.SubVerticalID)
		}
	}

	vpNames, icpNames, subNames := map[int]string{}, map[int]string{}, map[int]string{}
	if len(vpIDs) > 0 {
		vps, err := dbmodel.FindVPPointsByIDs(ctx, dbc.env, vpIDs)
		if err != nil {
			return nil, internalError(err, "problem resolving vp points")
		}
		for _, vp := range vps {
			vpNames[vp.ID] = vp.Name
		}
	}
	if len(icpIDs) > 0 {
		icps, err := dbmodel.FindICPsByIDs(ctx, dbc.env, icpIDs)
		if err != nil {
			return nil, internalError(err, "problem resolving icps")
		}
		for _, icp := range icps {
			icpNames[icp.ID] = icp.Name
		}
	}
	if len(subIDs) > 0 {
		subs, err := dbmodel.FindSubVerticalsByIDs(ctx, dbc.env, subIDs)
		if err != nil {
			return nil, internalError(err, "problem resolving sub-verticals")
		}
		for _, sub := range subs {
			subNames[sub.ID] = sub.Name
		}
	}

	return importHypothesesWithNames(hs, vpNames, icpNames, subNames)
}

func (dbc *DBConnector) FindHypotheses(ctx context.Context, u *dbmodel.User) ([]model.APIHypothesis, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}

	owner := u.ID
	if u.IsAdmin() {
		owner = 0
	}
	hs, err := dbmodel.FindHypotheses(ctx, dbc.env, owner)
	if err != nil {
		return nil, internalError(err, "problem finding hypotheses")
	}
	return dbc.importHypotheses(ctx, hs)
}

// writeCard stores the card and queues the repository sync when it is
// configured.
func (dbc *DBConnector) writeCard(ctx context.Context, h *dbmodel.Hypothesis) (*model.APICard, error) {
	store, err := dbc.cardStore(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	name, content, err := knowledge.WriteCard(ctx, dbc.env, store, h)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if dbc.env.GetConfig().GitHub.Enabled() {
		j := units.NewSyncCardJob(h.ID)
		grip.Warning(message.WrapError(dbc.env.GetQueue().Put(ctx, j), message.Fields{
			"message":    "problem queuing card sync",
			"hypothesis": h.ID,
			"job":        j.ID(),
		}))
	}

	return &model.APICard{
		HypothesisID: h.ID,
		Name:         name,
		Path:         store.RepoPath(name),
		Content:      content,
	}, nil
}

// detail builds the response for a single hypothesis. A missing card leaves
// card_file null.
func (dbc *DBConnector) detail(ctx context.Context, h *dbmodel.Hypothesis) (*model.APIHypothesisDetail, error) {
	apiHypotheses, err := dbc.importHypotheses(ctx, []dbmodel.Hypothesis{*h})
	if err != nil {
		return nil, err
	}
	out := &model.APIHypothesisDetail{APIHypothesis: apiHypotheses[0]}

	store, err := dbc.cardStore(ctx)
	if err != nil {
		logWarning(err, "card store unavailable", message.Fields{"hypothesis": h.ID})
		return out, nil
	}
	name, err := store.Find(ctx, h.ID)
	if err == nil {
		out.CardFile = utility.ToStringPtr(name)
	} else if errors.Cause(err) != knowledge.ErrCardNotFound {
		logWarning(err, "problem finding card", message.Fields{"hypothesis": h.ID})
	}
	return out, nil
}

func (dbc *DBConnector) CreateHypothesis(ctx context.Context, u *dbmodel.User, in model.APIHypothesisInput) (*model.APIHypothesisDetail, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}

	h, err := in.Export(u.ID)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	h.Setup(dbc.env)
	if err = h.SaveNew(ctx); err != nil {
		return nil, internalError(err, "problem saving hypothesis")
	}

	out, err := dbc.detail(ctx, h)
	if err != nil {
		return nil, err
	}
	card, err := dbc.writeCard(ctx, h)
	if err != nil {
		logWarning(err, "problem writing card for new hypothesis", message.Fields{"hypothesis": h.ID})
		return out, nil
	}
	out.CardFile = utility.ToStringPtr(card.Name)
	return out, nil
}

func (dbc *DBConnector) FindHypothesisByID(ctx context.Context, u *dbmodel.User, id int) (*model.APIHypothesisDetail, error) {
	h, err := dbc.findVisibleHypothesis(ctx, u, id)
	if err != nil {
		return nil, err
	}
	return dbc.detail(ctx, h)
}

func (dbc *DBConnector) SetHypothesisDecision(ctx context.Context, u *dbmodel.User, id int, in model.APIDecisionInput) (*model.APIHypothesisDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, badRequest(err.Error())
	}
	h, err := dbc.findVisibleHypothesis(ctx, u, id)
	if err != nil {
		return nil, err
	}

	if err = h.SetDecision(ctx, in.Decision, in.Notes); err != nil {
		return nil, internalError(err, "problem setting decision of hypothesis %d", id)
	}
	if _, err = dbc.writeCard(ctx, h); err != nil {
		logWarning(err, "problem refreshing card after decision", message.Fields{"hypothesis": id})
	}
	return dbc.detail(ctx, h)
}

func (dbc *DBConnector) RefreshCard(ctx context.Context, u *dbmodel.User, id int) (*model.APICard, error) {
	h, err := dbc.findVisibleHypothesis(ctx, u, id)
	if err != nil {
		return nil, err
	}
	card, err := dbc.writeCard(ctx, h)
	if err != nil {
		return nil, internalError(err, "problem writing card for hypothesis %d", id)
	}
	return card, nil
}

func (dbc *DBConnector) FindCard(ctx context.Context, u *dbmodel.User, id int) (*model.APICard, error) {
	if _, err := dbc.findVisibleHypothesis(ctx, u, id); err != nil {
		return nil, err
	}
	store, err := dbc.cardStore(ctx)
	if err != nil {
		return nil, internalError(err, "problem opening card store")
	}

	name, err := store.Find(ctx, id)
	if err != nil {
		if errors.Cause(err) == knowledge.ErrCardNotFound {
			return nil, notFound("hypothesis %d has no card", id)
		}
		return nil, internalError(err, "problem finding card of hypothesis %d", id)
	}
	content, err := store.Get(ctx, name)
	if err != nil {
		if errors.Cause(err) == knowledge.ErrCardNotFound {
			return nil, notFound("hypothesis %d has no card", id)
		}
		return nil, internalError(err, "problem reading card of hypothesis %d", id)
	}

	return &model.APICard{
		HypothesisID: id,
		Name:         name,
		Path:         store.RepoPath(name),
		Content:      content,
	}, nil
}

func (dbc *DBConnector) FindScript(ctx context.Context, u *dbmodel.User, id int) (*model.APIScript, error) {
	if _, err := dbc.findVisibleHypothesis(ctx, u, id); err != nil {
		return nil, err
	}

	s, err := dbmodel.FindScript(ctx, dbc.env, id)
	if err != nil {
		if db.ResultsNotFound(errors.Cause(err)) {
			return &model.APIScript{HypothesisID: id}, nil
		}
		return nil, internalError(err, "problem finding script of hypothesis %d", id)
	}

	out := &model.APIScript{}
	if err = out.Import(s); err != nil {
		return nil, internalError(err, "problem converting script")
	}
	return out, nil
}

func (dbc *DBConnector) SaveScript(ctx context.Context, u *dbmodel.User, id int, content string) (*model.APIScript, error) {
	h, err := dbc.findVisibleHypothesis(ctx, u, id)
	if err != nil {
		return nil, err
	}

	s, err := dbmodel.SaveScript(ctx, dbc.env, h, content)
	if err != nil {
		return nil, internalError(err, "problem saving script of hypothesis %d", id)
	}
	out := &model.APIScript{}
	if err = out.Import(s); err != nil {
		return nil, internalError(err, "problem converting script")
	}
	return out, nil
}

func importHypothesesWithNames(hs []dbmodel.Hypothesis, vpNames, icpNames, subNames map[int]string) ([]model.APIHypothesis, error) {
	out := make([]model.APIHypothesis, 0, len(hs))
	for _, h := range hs {
		api := model.APIHypothesis{}
		if err := api.Import(h); err != nil {
			return nil, internalError(err, "problem converting hypothesis %d", h.ID)
		}
		api.SetNames(nameOf(vpNames, h.VPPointID), nameOf(icpNames, h.ICPID), nameOf(subNames, h.SubVerticalID))
		out = append(out, api)
	}
	return out, nil
}

func nameOf(names map[int]string, id *int) string {
	if id == nil {
		return ""
	}
	return names[*id]
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

func (mc *MockConnector) findVisibleHypothesis(u *dbmodel.User, id int) (*dbmodel.Hypothesis, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	h, ok := mc.Hypotheses[id]
	if !ok || !h.VisibleTo(u) {
		return nil, hypothesisNotFound(id)
	}
	return &h, nil
}

func (mc *MockConnector) importHypotheses(hs []dbmodel.Hypothesis) ([]model.APIHypothesis, error) {
	vpNames, icpNames, subNames := map[int]string{}, map[int]string{}, map[int]string{}
	for _, vp := range mc.VPPoints {
		vpNames[vp.ID] = vp.Name
	}
	for _, icp := range mc.ICPs {
		icpNames[icp.ID] = icp.Name
	}
	for _, sub := range mc.SubVerticals {
		subNames[sub.ID] = sub.Name
	}
	return importHypothesesWithNames(hs, vpNames, icpNames, subNames)
}

// mockCardDir matches the repository directory of a default store.
const mockCardDir = "knowledge/hypotheses"

// cardName mirrors the store lookup: the last matching name wins.
func (mc *MockConnector) cardName(id int) string {
	prefix := knowledge.FilenamePrefix(id)
	names := []string{}
	for name := range mc.Cards {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[len(names)-1]
}

func (mc *MockConnector) writeCard(h *dbmodel.Hypothesis) *model.APICard {
	names := knowledge.CardNames{}
	for _, vp := range mc.VPPoints {
		if h.VPPointID != nil && vp.ID == *h.VPPointID {
			names.VPPoint = vp.Name
		}
	}
	for _, icp := range mc.ICPs {
		if h.ICPID != nil && icp.ID == *h.ICPID {
			names.ICP = icp.Name
		}
	}
	for _, sub := range mc.SubVerticals {
		if h.SubVerticalID != nil && sub.ID == *h.SubVerticalID {
			names.SubVertical = sub.Name
		}
	}

	facts := knowledge.CardFacts{
		TALSize: len(mc.talAccounts(h.ID)),
		Metrics: dbmodel.ComputeMetrics(mc.callsOf(h.ID, false)),
	}
	content := knowledge.EnrichCard(knowledge.RenderCard(h, names), facts)

	if mc.Cards == nil {
		mc.Cards = map[string]string{}
	}
	name := knowledge.Filename(h)
	mc.Cards[name] = content
	return &model.APICard{
		HypothesisID: h.ID,
		Name:         name,
		Path:         mockCardDir + "/" + name,
		Content:      content,
	}
}

func (mc *MockConnector) detail(h *dbmodel.Hypothesis) (*model.APIHypothesisDetail, error) {
	apiHypotheses, err := mc.importHypotheses([]dbmodel.Hypothesis{*h})
	if err != nil {
		return nil, err
	}
	out := &model.APIHypothesisDetail{APIHypothesis: apiHypotheses[0]}
	if name := mc.cardName(h.ID); name != "" {
		out.CardFile = utility.ToStringPtr(name)
	}
	return out, nil
}

func (mc *MockConnector) FindHypotheses(_ context.Context, u *dbmodel.User) ([]model.APIHypothesis, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	hs := []dbmodel.Hypothesis{}
	for _, h := range mc.Hypotheses {
		if h.VisibleTo(u) {
			hs = append(hs, h)
		}
	}
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].CreatedAt.Equal(hs[j].CreatedAt) {
			return hs[i].ID > hs[j].ID
		}
		return hs[i].CreatedAt.After(hs[j].CreatedAt)
	})
	return mc.importHypotheses(hs)
}

func (mc *MockConnector) CreateHypothesis(_ context.Context, u *dbmodel.User, in model.APIHypothesisInput) (*model.APIHypothesisDetail, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	h, err := in.Export(u.ID)
	if err != nil {
		return nil, badRequest(err.Error())
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.Hypotheses == nil {
		mc.Hypotheses = map[int]dbmodel.Hypothesis{}
	}
	h.ID = mc.nextID()
	mc.Hypotheses[h.ID] = *h
	mc.writeCard(h)
	return mc.detail(h)
}

func (mc *MockConnector) FindHypothesisByID(_ context.Context, u *dbmodel.User, id int) (*model.APIHypothesisDetail, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, id)
	if err != nil {
		return nil, err
	}
	return mc.detail(h)
}

func (mc *MockConnector) SetHypothesisDecision(_ context.Context, u *dbmodel.User, id int, in model.APIDecisionInput) (*model.APIHypothesisDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, badRequest(err.Error())
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, id)
	if err != nil {
		return nil, err
	}
	h.Decision = in.Decision
	h.DecisionNotes = in.Notes
	h.UpdatedAt = time.Now().UTC()
	mc.Hypotheses[id] = *h
	mc.writeCard(h)
	return mc.detail(h)
}

func (mc *MockConnector) RefreshCard(_ context.Context, u *dbmodel.User, id int) (*model.APICard, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, id)
	if err != nil {
		return nil, err
	}
	return mc.writeCard(h), nil
}

func (mc *MockConnector) FindCard(_ context.Context, u *dbmodel.User, id int) (*model.APICard, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, err := mc.findVisibleHypothesis(u, id); err != nil {
		return nil, err
	}
	name := mc.cardName(id)
	if name == "" {
		return nil, notFound("hypothesis %d has no card", id)
	}
	return &model.APICard{
		HypothesisID: id,
		Name:         name,
		Path:         mockCardDir + "/" + name,
		Content:      mc.Cards[name],
	}, nil
}

func (mc *MockConnector) FindScript(_ context.Context, u *dbmodel.User, id int) (*model.APIScript, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, err := mc.findVisibleHypothesis(u, id); err != nil {
		return nil, err
	}
	s, ok := mc.Scripts[id]
	if !ok {
		return &model.APIScript{HypothesisID: id}, nil
	}
	out := &model.APIScript{}
	if err := out.Import(s); err != nil {
		return nil, internalError(err, "problem converting script")
	}
	return out, nil
}

func (mc *MockConnector) SaveScript(_ context.Context, u *dbmodel.User, id int, content string) (*model.APIScript, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, err := mc.findVisibleHypothesis(u, id)
	if err != nil {
		return nil, err
	}
	if mc.Scripts == nil {
		mc.Scripts = map[int]dbmodel.Script{}
	}

	now := time.Now().UTC()
	s, ok := mc.Scripts[id]
	if !ok {
		s = dbmodel.Script{
			ID:           mc.nextID(),
			HypothesisID: id,
			OwnerUserID:  h.OwnerUserID,
			CreatedAt:    now,
		}
	}
	s.Content = content
	s.UpdatedAt = now
	mc.Scripts[id] = s

	out := &model.APIScript{}
	if err = out.Import(s); err != nil {
		return nil, internalError(err, "problem converting script")
	}
	return out, nil
}
