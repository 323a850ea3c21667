package model

import (
	"strings"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
)

// APIHypothesis is a hypothesis with the names of the catalogue entries it
// references.
type APIHypothesis struct {
	ID          int     `json:"id"`
	OwnerUserID int     `json:"owner_user_id"`
	Title       *string `json:"title"`

	Segment       *string `json:"segment"`
	Problem       *string `json:"problem"`
	Assumption    *string `json:"assumption"`
	Channel       *string `json:"channel"`
	SuccessMetric *string `json:"success_metric"`
	MinimalSignal *string `json:"minimal_signal"`

	VPPointID       *int    `json:"vp_point_id"`
	VPPointName     *string `json:"vp_point_name"`
	ICPID           *int    `json:"icp_id"`
	ICPName         *string `json:"icp_name"`
	SubVerticalID   *int    `json:"sub_vertical_id"`
	SubVerticalName *string `json:"sub_vertical_name"`
	Pain            *string `json:"pain"`
	ExpectedSignal  *string `json:"expected_signal"`
	Disqualifiers   *string `json:"disqualifiers"`

	Decision      *string `json:"decision"`
	DecisionNotes *string `json:"decision_notes"`
	Status        *string `json:"status"`
	StartDate     APIDate `json:"start_date"`
	EndDate       APIDate `json:"end_date"`
	CreatedAt     APITime `json:"created_at"`
	UpdatedAt     APITime `json:"updated_at"`
}

func (a *APIHypothesis) Import(i interface{}) error {
	switch h := i.(type) {
	case dbmodel.Hypothesis:
		a.ID = h.ID
		a.OwnerUserID = h.OwnerUserID
		a.Title = utility.ToStringPtr(h.Title)
		a.Segment = utility.ToStringPtr(h.Segment)
		a.Problem = utility.ToStringPtr(h.Problem)
		a.Assumption = utility.ToStringPtr(h.Assumption)
		a.Channel = utility.ToStringPtr(h.Channel)
		a.SuccessMetric = utility.ToStringPtr(h.SuccessMetric)
		a.MinimalSignal = utility.ToStringPtr(h.MinimalSignal)
		a.VPPointID = h.VPPointID
		a.ICPID = h.ICPID
		a.SubVerticalID = h.SubVerticalID
		a.Pain = utility.ToStringPtr(h.Pain)
		a.ExpectedSignal = utility.ToStringPtr(h.ExpectedSignal)
		a.Disqualifiers = utility.ToStringPtr(h.Disqualifiers)
		a.Decision = utility.ToStringPtr(h.Decision)
		a.DecisionNotes = utility.ToStringPtr(h.DecisionNotes)
		a.Status = utility.ToStringPtr(h.Status)
		a.StartDate = NewDate(h.StartDate)
		a.EndDate = NewDate(h.EndDate)
		a.CreatedAt = NewTime(h.CreatedAt)
		a.UpdatedAt = NewTime(h.UpdatedAt)
	case *dbmodel.Hypothesis:
		if h == nil {
			return errors.New("cannot convert nil hypothesis")
		}
		return a.Import(*h)
	default:
		return errors.Errorf("incorrect type %T when converting to APIHypothesis type", i)
	}

	return nil
}

// SetNames fills in the catalogue names. Empty names stay null.
func (a *APIHypothesis) SetNames(vpPoint, icp, subVertical string) {
	if vpPoint != "" {
		a.VPPointName = utility.ToStringPtr(vpPoint)
	}
	if icp != "" {
		a.ICPName = utility.ToStringPtr(icp)
	}
	if subVertical != "" {
		a.SubVerticalName = utility.ToStringPtr(subVertical)
	}
}

// APIHypothesisDetail adds the stored card, when there is one.
type APIHypothesisDetail struct {
	APIHypothesis
	CardFile *string `json:"card_file"`
}

// APIHypothesisInput is the body of a create request. Everything except
// the title is optional.
type APIHypothesisInput struct {
	Title         FormValue `json:"title"`
	VPPointID     FormValue `json:"vp_point_id"`
	ICPID         FormValue `json:"icp_id"`
	SubVerticalID FormValue `json:"sub_vertical_id"`

	Pain           FormValue `json:"pain"`
	ExpectedSignal FormValue `json:"expected_signal"`
	Disqualifiers  FormValue `json:"disqualifiers"`

	Segment       FormValue `json:"segment"`
	Problem       FormValue `json:"problem"`
	Assumption    FormValue `json:"assumption"`
	Channel       FormValue `json:"channel"`
	SuccessMetric FormValue `json:"success_metric"`
	MinimalSignal FormValue `json:"minimal_signal"`

	Status    FormValue `json:"status"`
	StartDate FormValue `json:"start_date"`
	EndDate   FormValue `json:"end_date"`
}

// Export builds an unsaved hypothesis owned by the user.
func (in *APIHypothesisInput) Export(ownerID int) (*dbmodel.Hypothesis, error) {
	title := in.Title.String()
	if title == "" {
		return nil, errors.New("title is required")
	}

	h := dbmodel.NewHypothesis(ownerID, title)
	h.VPPointID = in.VPPointID.ID()
	h.ICPID = in.ICPID.ID()
	h.SubVerticalID = in.SubVerticalID.ID()
	h.Pain = in.Pain.String()
	h.ExpectedSignal = in.ExpectedSignal.String()
	h.Disqualifiers = in.Disqualifiers.String()
	h.Segment = in.Segment.String()
	h.Problem = in.Problem.String()
	h.Assumption = in.Assumption.String()
	h.Channel = in.Channel.String()
	h.SuccessMetric = in.SuccessMetric.String()
	h.MinimalSignal = in.MinimalSignal.String()
	if status := in.Status.String(); status != "" {
		h.Status = status
	}
	h.StartDate = ParseDate(in.StartDate.String())
	h.EndDate = ParseDate(in.EndDate.String())

	return h, nil
}

// APIDecisionInput records the outcome of a hypothesis.
type APIDecisionInput struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

// Validate normalizes the decision and checks it.
func (in *APIDecisionInput) Validate() error {
	in.Decision = strings.ToLower(strings.TrimSpace(in.Decision))
	in.Notes = strings.TrimSpace(in.Notes)
	if !utility.StringSliceContains(dbmodel.ValidDecisions(), in.Decision) {
		return errors.Errorf("decision must be one of %s", strings.Join(dbmodel.ValidDecisions(), ", "))
	}
	return nil
}

// APICard is the markdown card of a hypothesis.
type APICard struct {
	HypothesisID int    `json:"hypothesis_id"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	Content      string `json:"content"`
}

// APIScript is the call script of a hypothesis. A hypothesis without one
// has an empty script.
type APIScript struct {
	HypothesisID int     `json:"hypothesis_id"`
	Content      string  `json:"content"`
	UpdatedAt    APITime `json:"updated_at"`
}

func (a *APIScript) Import(i interface{}) error {
	switch s := i.(type) {
	case dbmodel.Script:
		a.HypothesisID = s.HypothesisID
		a.Content = s.Content
		a.UpdatedAt = NewTime(s.UpdatedAt)
	case *dbmodel.Script:
		if s == nil {
			return errors.New("cannot convert nil script")
		}
		return a.Import(*s)
	default:
		return errors.Errorf("incorrect type %T when converting to APIScript type", i)
	}

	return nil
}

// APIScriptInput replaces the script content.
type APIScriptInput struct {
	Content string `json:"content"`
}
