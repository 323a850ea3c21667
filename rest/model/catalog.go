package model

import (
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
)

type APIVPPoint struct {
	ID            int     `json:"id"`
	Name          *string `json:"name"`
	JobToBeDone   *string `json:"job_to_be_done"`
	PainFriction  *string `json:"pain_friction"`
	OutcomeMetric *string `json:"outcome_metric"`
	CreatedAt     APITime `json:"created_at"`
}

func (a *APIVPPoint) Import(i interface{}) error {
	switch p := i.(type) {
	case dbmodel.VPPoint:
		a.ID = p.ID
		a.Name = utility.ToStringPtr(p.Name)
		a.JobToBeDone = utility.ToStringPtr(p.JobToBeDone)
		a.PainFriction = utility.ToStringPtr(p.PainFriction)
		a.OutcomeMetric = utility.ToStringPtr(p.OutcomeMetric)
		a.CreatedAt = NewTime(p.CreatedAt)
	default:
		return errors.Errorf("incorrect type %T when converting to APIVPPoint type", i)
	}
	return nil
}

type APIVPPointInput struct {
	Name          FormValue `json:"name"`
	JobToBeDone   FormValue `json:"job_to_be_done"`
	PainFriction  FormValue `json:"pain_friction"`
	OutcomeMetric FormValue `json:"outcome_metric"`
}

func (in *APIVPPointInput) Export() (*dbmodel.VPPoint, error) {
	p := &dbmodel.VPPoint{
		Name:          in.Name.String(),
		JobToBeDone:   in.JobToBeDone.String(),
		PainFriction:  in.PainFriction.String(),
		OutcomeMetric: in.OutcomeMetric.String(),
	}
	if p.Name == "" {
		return nil, errors.New("name is required")
	}
	return p, nil
}

type APIICP struct {
	ID              int     `json:"id"`
	Name            *string `json:"name"`
	Role            *string `json:"role"`
	Scale           *string `json:"scale"`
	DecisionContext *string `json:"decision_context"`
	CreatedAt       APITime `json:"created_at"`
}

func (a *APIICP) Import(i interface{}) error {
	switch p := i.(type) {
	case dbmodel.ICP:
		a.ID = p.ID
		a.Name = utility.ToStringPtr(p.Name)
		a.Role = utility.ToStringPtr(p.Role)
		a.Scale = utility.ToStringPtr(p.Scale)
		a.DecisionContext = utility.ToStringPtr(p.DecisionContext)
		a.CreatedAt = NewTime(p.CreatedAt)
	default:
		return errors.Errorf("incorrect type %T when converting to APIICP type", i)
	}
	return nil
}

type APIICPInput struct {
	Name            FormValue `json:"name"`
	Role            FormValue `json:"role"`
	Scale           FormValue `json:"scale"`
	DecisionContext FormValue `json:"decision_context"`
}

func (in *APIICPInput) Export() (*dbmodel.ICP, error) {
	p := &dbmodel.ICP{
		Name:            in.Name.String(),
		Role:            in.Role.String(),
		Scale:           in.Scale.String(),
		DecisionContext: in.DecisionContext.String(),
	}
	if p.Name == "" {
		return nil, errors.New("name is required")
	}
	return p, nil
}

type APISubVertical struct {
	ID          int     `json:"id"`
	VerticalID  int     `json:"vertical_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	CreatedAt   APITime `json:"created_at"`
}

func (a *APISubVertical) Import(i interface{}) error {
	switch s := i.(type) {
	case dbmodel.SubVertical:
		a.ID = s.ID
		a.VerticalID = s.VerticalID
		a.Name = utility.ToStringPtr(s.Name)
		a.Description = utility.ToStringPtr(s.Description)
		a.CreatedAt = NewTime(s.CreatedAt)
	default:
		return errors.Errorf("incorrect type %T when converting to APISubVertical type", i)
	}
	return nil
}

// APIVertical embeds its sub-verticals, newest first.
type APIVertical struct {
	ID          int              `json:"id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	CreatedAt   APITime          `json:"created_at"`
	Subs        []APISubVertical `json:"subs"`
}

func (a *APIVertical) Import(i interface{}) error {
	switch v := i.(type) {
	case dbmodel.Vertical:
		a.ID = v.ID
		a.Name = utility.ToStringPtr(v.Name)
		a.Description = utility.ToStringPtr(v.Description)
		a.CreatedAt = NewTime(v.CreatedAt)
		if a.Subs == nil {
			a.Subs = []APISubVertical{}
		}
	default:
		return errors.Errorf("incorrect type %T when converting to APIVertical type", i)
	}
	return nil
}

// APIVerticalInput creates a vertical and, when SubName is set, its first
// sub-vertical.
type APIVerticalInput struct {
	Name        FormValue `json:"name"`
	SubName     FormValue `json:"sub_name"`
	Description FormValue `json:"description"`
}

func (in *APIVerticalInput) Export() (*dbmodel.Vertical, error) {
	v := &dbmodel.Vertical{
		Name:        in.Name.String(),
		Description: in.Description.String(),
	}
	if v.Name == "" {
		return nil, errors.New("name is required")
	}
	return v, nil
}

type APISubVerticalInput struct {
	Name        FormValue `json:"name"`
	Description FormValue `json:"description"`
}

// Export returns nil, without an error, when the name is blank.
func (in *APISubVerticalInput) Export(verticalID int) *dbmodel.SubVertical {
	name := in.Name.String()
	if name == "" {
		return nil
	}
	return &dbmodel.SubVertical{
		VerticalID:  verticalID,
		Name:        name,
		Description: in.Description.String(),
	}
}
