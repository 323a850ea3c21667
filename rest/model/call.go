package model

import (
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
)

type APICall struct {
	ID            int         `json:"id"`
	OwnerUserID   int         `json:"owner_user_id"`
	HypothesisID  *int        `json:"hypothesis_id"`
	TALAccountID  *int        `json:"tal_account_id"`
	CompanyID     *int        `json:"company_id"`
	CompanyRef    *APICompany `json:"company_ref"`
	CallDate      APIDate     `json:"call_date"`
	Company       *string     `json:"company"`
	Contact       *string     `json:"contact"`
	Source        *string     `json:"source"`
	Summary       *string     `json:"summary"`
	TranscriptURL *string     `json:"transcript_url"`
	PainConfirmed bool        `json:"pain_confirmed"`
	Severity      int         `json:"severity"`
	Interest      bool        `json:"interest"`
	FollowUp      bool        `json:"follow_up"`
	Disqualifier  *string     `json:"disqualifier"`
	CreatedAt     APITime     `json:"created_at"`
}

func (a *APICall) Import(i interface{}) error {
	switch c := i.(type) {
	case dbmodel.Call:
		a.ID = c.ID
		a.OwnerUserID = c.OwnerUserID
		a.HypothesisID = c.HypothesisID
		a.TALAccountID = c.TALAccountID
		a.CompanyID = c.CompanyID
		a.CallDate = NewDate(c.CallDate)
		a.Company = utility.ToStringPtr(c.Company)
		a.Contact = utility.ToStringPtr(c.Contact)
		a.Source = utility.ToStringPtr(c.Source)
		a.Summary = utility.ToStringPtr(c.Summary)
		a.TranscriptURL = utility.ToStringPtr(c.TranscriptURL)
		a.PainConfirmed = c.PainConfirmed
		a.Severity = c.Severity
		a.Interest = c.Interest
		a.FollowUp = c.FollowUp
		a.Disqualifier = utility.ToStringPtr(c.Disqualifier)
		a.CreatedAt = NewTime(c.CreatedAt)
	case *dbmodel.Call:
		if c == nil {
			return errors.New("cannot convert nil call")
		}
		return a.Import(*c)
	default:
		return errors.Errorf("incorrect type %T when converting to APICall type", i)
	}
	return nil
}

// APICallList is the call log of a hypothesis together with the accounts a
// new call can be logged against.
type APICallList struct {
	HypothesisID int             `json:"hypothesis_id"`
	Calls        []APICall       `json:"calls"`
	TALAccounts  []APITALAccount `json:"tal_accounts"`
}

// APICallInput is the body of a call log request.
type APICallInput struct {
	CallDate      FormValue `json:"call_date"`
	TALAccountID  FormValue `json:"tal_account_id"`
	Summary       FormValue `json:"summary"`
	TranscriptURL FormValue `json:"transcript_url"`
	PainConfirmed FormValue `json:"pain_confirmed"`
	Severity      FormValue `json:"severity"`
	Interest      FormValue `json:"interest"`
	FollowUp      FormValue `json:"follow_up"`
	Disqualifier  FormValue `json:"disqualifier"`
}

// Export builds an unsaved call for the hypothesis. The account reference
// is resolved by the caller.
func (in *APICallInput) Export(ownerID, hypothesisID int) *dbmodel.Call {
	c := dbmodel.NewCall(ownerID)
	c.HypothesisID = utility.ToIntPtr(hypothesisID)
	c.CallDate = ParseDate(in.CallDate.String())
	c.Summary = in.Summary.String()
	c.TranscriptURL = in.TranscriptURL.String()
	c.PainConfirmed = in.PainConfirmed.Bool()
	c.Interest = in.Interest.Bool()
	c.FollowUp = in.FollowUp.Bool()
	c.Severity = in.Severity.Int(0)
	c.Disqualifier = in.Disqualifier.String()
	return c
}
