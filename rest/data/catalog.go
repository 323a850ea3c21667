package data

import (
	"context"
	"sort"
	"time"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/mongodb/anser/db"
	"github.com/pkg/errors"
)

// saveError maps unique violations to a 400.
func saveError(err error, format string, args ...interface{}) error {
	if errors.Cause(err) == dbmodel.ErrDuplicate {
		return badRequest(err.Error())
	}
	return internalError(err, format, args...)
}

func importVerticals(vs []dbmodel.Vertical, subs []dbmodel.SubVertical) ([]model.APIVertical, error) {
	byParent := map[int][]model.APISubVertical{}
	for _, s := range subs {
		api := model.APISubVertical{}
		if err := api.Import(s); err != nil {
			return nil, internalError(err, "problem converting sub-vertical %d", s.ID)
		}
		byParent[s.VerticalID] = append(byParent[s.VerticalID], api)
	}

	out := make([]model.APIVertical, 0, len(vs))
	for _, v := range vs {
		api := model.APIVertical{}
		if err := api.Import(v); err != nil {
			return nil, internalError(err, "problem converting vertical %d", v.ID)
		}
		if parentSubs, ok := byParent[v.ID]; ok {
			api.Subs = parentSubs
		}
		out = append(out, api)
	}
	return out, nil
}

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

func (dbc *DBConnector) FindVPPoints(ctx context.Context) ([]model.APIVPPoint, error) {
	vps, err := dbmodel.FindVPPoints(ctx, dbc.env)
	if err != nil {
		return nil, internalError(err, "problem finding vp points")
	}

	out := make([]model.APIVPPoint, 0, len(vps))
	for _, vp := range vps {
		api := model.APIVPPoint{}
		if err = api.Import(vp); err != nil {
			return nil, internalError(err, "problem converting vp point %d", vp.ID)
		}
		out = append(out, api)
	}
	return out, nil
}

func (dbc *DBConnector) CreateVPPoint(ctx context.Context, u *dbmodel.User, in model.APIVPPointInput) (*model.APIVPPoint, error) {
	if err := requireAdmin(u, "edit the value proposition"); err != nil {
		return nil, err
	}
	vp, err := in.Export()
	if err != nil {
		return nil, badRequest(err.Error())
	}
	if err = vp.SaveNew(ctx, dbc.env); err != nil {
		return nil, saveError(err, "problem saving vp point")
	}

	out := &model.APIVPPoint{}
	if err = out.Import(*vp); err != nil {
		return nil, internalError(err, "problem converting vp point")
	}
	return out, nil
}

func (dbc *DBConnector) FindICPs(ctx context.Context) ([]model.APIICP, error) {
	icps, err := dbmodel.FindICPs(ctx, dbc.env)
	if err != nil {
		return nil, internalError(err, "problem finding icps")
	}

	out := make([]model.APIICP, 0, len(icps))
	for _, icp := range icps {
		api := model.APIICP{}
		if err = api.Import(icp); err != nil {
			return nil, internalError(err, "problem converting icp %d", icp.ID)
		}
		out = append(out, api)
	}
	return out, nil
}

func (dbc *DBConnector) CreateICP(ctx context.Context, u *dbmodel.User, in model.APIICPInput) (*model.APIICP, error) {
	if err := requireAdmin(u, "edit customer profiles"); err != nil {
		return nil, err
	}
	icp, err := in.Export()
	if err != nil {
		return nil, badRequest(err.Error())
	}
	if err = icp.SaveNew(ctx, dbc.env); err != nil {
		return nil, saveError(err, "problem saving icp")
	}

	out := &model.APIICP{}
	if err = out.Import(*icp); err != nil {
		return nil, internalError(err, "problem converting icp")
	}
	return out, nil
}

func (dbc *DBConnector) FindVerticals(ctx context.Context) ([]model.APIVertical, error) {
	vs, err := dbmodel.FindVerticals(ctx, dbc.env)
	if err != nil {
		return nil, internalError(err, "problem finding verticals")
	}
	subs, err := dbmodel.FindSubVerticals(ctx, dbc.env)
	if err != nil {
		return nil, internalError(err, "problem finding sub-verticals")
	}
	return importVerticals(vs, subs)
}

func (dbc *DBConnector) findVertical(ctx context.Context, id int) (*model.APIVertical, error) {
	v, err := dbmodel.FindVertical(ctx, dbc.env, id)
	if err != nil {
		return nil, findError(err, "vertical %d", id)
	}
	subs, err := dbmodel.FindSubVerticals(ctx, dbc.env, id)
	if err != nil {
		return nil, internalError(err, "problem finding sub-verticals of vertical %d", id)
	}
	out, err := importVerticals([]dbmodel.Vertical{*v}, subs)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (dbc *DBConnector) CreateVertical(ctx context.Context, u *dbmodel.User, in model.APIVerticalInput) (*model.APIVertical, error) {
	if err := requireAdmin(u, "edit verticals"); err != nil {
		return nil, err
	}
	v, err := in.Export()
	if err != nil {
		return nil, badRequest(err.Error())
	}
	if err = v.SaveNew(ctx, dbc.env); err != nil {
		return nil, saveError(err, "problem saving vertical")
	}

	sub := (&model.APISubVerticalInput{Name: in.SubName}).Export(v.ID)
	if sub != nil {
		if err = sub.SaveNew(ctx, dbc.env); err != nil {
			return nil, saveError(err, "problem saving sub-vertical of vertical %d", v.ID)
		}
	}
	return dbc.findVertical(ctx, v.ID)
}

func (dbc *DBConnector) CreateSubVertical(ctx context.Context, u *dbmodel.User, verticalID int, in model.APISubVerticalInput) (*model.APIVertical, error) {
	if err := requireAdmin(u, "edit verticals"); err != nil {
		return nil, err
	}
	if _, err := dbmodel.FindVertical(ctx, dbc.env, verticalID); err != nil {
		return nil, findError(err, "vertical %d", verticalID)
	}

	if sub := in.Export(verticalID); sub != nil {
		if err := sub.SaveNew(ctx, dbc.env); err != nil {
			if db.ResultsNotFound(errors.Cause(err)) {
				return nil, notFound("vertical %d not found", verticalID)
			}
			return nil, saveError(err, "problem saving sub-vertical of vertical %d", verticalID)
		}
	}
	return dbc.findVertical(ctx, verticalID)
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

func (mc *MockConnector) FindVPPoints(_ context.Context) ([]model.APIVPPoint, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	vps := append([]dbmodel.VPPoint{}, mc.VPPoints...)
	sort.SliceStable(vps, func(i, j int) bool { return newer(vps[i].CreatedAt, vps[i].ID, vps[j].CreatedAt, vps[j].ID) })

	out := make([]model.APIVPPoint, 0, len(vps))
	for _, vp := range vps {
		api := model.APIVPPoint{}
		if err := api.Import(vp); err != nil {
			return nil, internalError(err, "problem converting vp point %d", vp.ID)
		}
		out = append(out, api)
	}
	return out, nil
}

func (mc *MockConnector) CreateVPPoint(_ context.Context, u *dbmodel.User, in model.APIVPPointInput) (*model.APIVPPoint, error) {
	if err := requireAdmin(u, "edit the value proposition"); err != nil {
		return nil, err
	}
	vp, err := in.Export()
	if err != nil {
		return nil, badRequest(err.Error())
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, existing := range mc.VPPoints {
		if existing.Name == vp.Name {
			return nil, badRequest("'%s' already exists", vp.Name)
		}
	}
	vp.ID = mc.nextID()
	vp.CreatedAt = time.Now().UTC()
	mc.VPPoints = append(mc.VPPoints, *vp)

	out := &model.APIVPPoint{}
	if err = out.Import(*vp); err != nil {
		return nil, internalError(err, "problem converting vp point")
	}
	return out, nil
}

func (mc *MockConnector) FindICPs(_ context.Context) ([]model.APIICP, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	icps := append([]dbmodel.ICP{}, mc.ICPs...)
	sort.SliceStable(icps, func(i, j int) bool { return newer(icps[i].CreatedAt, icps[i].ID, icps[j].CreatedAt, icps[j].ID) })

	out := make([]model.APIICP, 0, len(icps))
	for _, icp := range icps {
		api := model.APIICP{}
		if err := api.Import(icp); err != nil {
			return nil, internalError(err, "problem converting icp %d", icp.ID)
		}
		out = append(out, api)
	}
	return out, nil
}

func (mc *MockConnector) CreateICP(_ context.Context, u *dbmodel.User, in model.APIICPInput) (*model.APIICP, error) {
	if err := requireAdmin(u, "edit customer profiles"); err != nil {
		return nil, err
	}
	icp, err := in.Export()
	if err != nil {
		return nil, badRequest(err.Error())
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, existing := range mc.ICPs {
		if existing.Name == icp.Name {
			return nil, badRequest("'%s' already exists", icp.Name)
		}
	}
	icp.ID = mc.nextID()
	icp.CreatedAt = time.Now().UTC()
	mc.ICPs = append(mc.ICPs, *icp)

	out := &model.APIICP{}
	if err = out.Import(*icp); err != nil {
		return nil, internalError(err, "problem converting icp")
	}
	return out, nil
}

func (mc *MockConnector) sortedVerticals() ([]dbmodel.Vertical, []dbmodel.SubVertical) {
	vs := append([]dbmodel.Vertical{}, mc.Verticals...)
	sort.SliceStable(vs, func(i, j int) bool { return newer(vs[i].CreatedAt, vs[i].ID, vs[j].CreatedAt, vs[j].ID) })
	subs := append([]dbmodel.SubVertical{}, mc.SubVerticals...)
	sort.SliceStable(subs, func(i, j int) bool {
		return newer(subs[i].CreatedAt, subs[i].ID, subs[j].CreatedAt, subs[j].ID)
	})
	return vs, subs
}

func (mc *MockConnector) FindVerticals(_ context.Context) ([]model.APIVertical, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return importVerticals(mc.sortedVerticals())
}

func (mc *MockConnector) findVertical(id int) (*model.APIVertical, error) {
	vs, subs := mc.sortedVerticals()
	for _, v := range vs {
		if v.ID == id {
			out, err := importVerticals([]dbmodel.Vertical{v}, subs)
			if err != nil {
				return nil, err
			}
			return &out[0], nil
		}
	}
	return nil, notFound("vertical %d not found", id)
}

// addSubVertical enforces unique names within the vertical.
func (mc *MockConnector) addSubVertical(sub *dbmodel.SubVertical) error {
	for _, existing := range mc.SubVerticals {
		if existing.VerticalID == sub.VerticalID && existing.Name == sub.Name {
			return badRequest("'%s' already exists", sub.Name)
		}
	}
	sub.ID = mc.nextID()
	sub.CreatedAt = time.Now().UTC()
	mc.SubVerticals = append(mc.SubVerticals, *sub)
	return nil
}

func (mc *MockConnector) CreateVertical(_ context.Context, u *dbmodel.User, in model.APIVerticalInput) (*model.APIVertical, error) {
	if err := requireAdmin(u, "edit verticals"); err != nil {
		return nil, err
	}
	v, err := in.Export()
	if err != nil {
		return nil, badRequest(err.Error())
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, existing := range mc.Verticals {
		if existing.Name == v.Name {
			return nil, badRequest("'%s' already exists", v.Name)
		}
	}
	v.ID = mc.nextID()
	v.CreatedAt = time.Now().UTC()
	mc.Verticals = append(mc.Verticals, *v)

	if sub := (&model.APISubVerticalInput{Name: in.SubName}).Export(v.ID); sub != nil {
		if err = mc.addSubVertical(sub); err != nil {
			return nil, err
		}
	}
	return mc.findVertical(v.ID)
}

func (mc *MockConnector) CreateSubVertical(_ context.Context, u *dbmodel.User, verticalID int, in model.APISubVerticalInput) (*model.APIVertical, error) {
	if err := requireAdmin(u, "edit verticals"); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, err := mc.findVertical(verticalID); err != nil {
		return nil, err
	}
	if sub := in.Export(verticalID); sub != nil {
		if err := mc.addSubVertical(sub); err != nil {
			return nil, err
		}
	}
	return mc.findVertical(verticalID)
}

// newer orders by creation time, then id, both descending.
func newer(at time.Time, id int, otherAt time.Time, otherID int) bool {
	if at.Equal(otherAt) {
		return id > otherID
	}
	return at.After(otherAt)
}
