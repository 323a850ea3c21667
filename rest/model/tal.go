package model

import (
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
)

// APICompany is one imported company. Raw holds the whole CSV row.
type APICompany struct {
	ID        int               `json:"id"`
	ICP       *string           `json:"icp"`
	Name      *string           `json:"name"`
	Website   *string           `json:"website"`
	Score     *string           `json:"score"`
	Reasoning *string           `json:"reasoning"`
	Notes     *string           `json:"notes"`
	Raw       map[string]string `json:"raw,omitempty"`
	CreatedAt APITime           `json:"created_at"`
}

func (a *APICompany) Import(i interface{}) error {
	switch c := i.(type) {
	case dbmodel.Company:
		a.ID = c.ID
		a.ICP = utility.ToStringPtr(c.ICP)
		a.Name = utility.ToStringPtr(c.Name)
		a.Website = c.Website
		a.Score = utility.ToStringPtr(c.Score)
		a.Reasoning = utility.ToStringPtr(c.Reasoning)
		a.Notes = utility.ToStringPtr(c.Notes)
		a.Raw = c.Raw
		a.CreatedAt = NewTime(c.CreatedAt)
	case *dbmodel.Company:
		if c == nil {
			return errors.New("cannot convert nil company")
		}
		return a.Import(*c)
	default:
		return errors.Errorf("incorrect type %T when converting to APICompany type", i)
	}
	return nil
}

type APITALAccount struct {
	ID        int         `json:"id"`
	TALID     int         `json:"tal_id"`
	CompanyID int         `json:"company_id"`
	Company   *APICompany `json:"company"`
	FitReason *string     `json:"fit_reason"`
	PainHint  *string     `json:"pain_hint"`
	Status    *string     `json:"status"`
	Notes     *string     `json:"notes"`
	CreatedAt APITime     `json:"created_at"`
}

func (a *APITALAccount) Import(i interface{}) error {
	switch t := i.(type) {
	case dbmodel.TALAccount:
		a.ID = t.ID
		a.TALID = t.TALID
		a.CompanyID = t.CompanyID
		a.FitReason = utility.ToStringPtr(t.FitReason)
		a.PainHint = utility.ToStringPtr(t.PainHint)
		a.Status = utility.ToStringPtr(t.Status)
		a.Notes = utility.ToStringPtr(t.Notes)
		a.CreatedAt = NewTime(t.CreatedAt)
	default:
		return errors.Errorf("incorrect type %T when converting to APITALAccount type", i)
	}
	return nil
}

// APITAL is the target account list of a hypothesis with its accounts,
// newest first.
type APITAL struct {
	ID           int             `json:"id"`
	HypothesisID int             `json:"hypothesis_id"`
	OwnerUserID  int             `json:"owner_user_id"`
	Name         *string         `json:"name"`
	CreatedAt    APITime         `json:"created_at"`
	Accounts     []APITALAccount `json:"accounts"`
}

func (a *APITAL) Import(i interface{}) error {
	switch t := i.(type) {
	case dbmodel.TAL:
		a.ID = t.ID
		a.HypothesisID = t.HypothesisID
		a.OwnerUserID = t.OwnerUserID
		a.Name = utility.ToStringPtr(t.Name)
		a.CreatedAt = NewTime(t.CreatedAt)
		if a.Accounts == nil {
			a.Accounts = []APITALAccount{}
		}
	case *dbmodel.TAL:
		if t == nil {
			return errors.New("cannot convert nil tal")
		}
		return a.Import(*t)
	default:
		return errors.Errorf("incorrect type %T when converting to APITAL type", i)
	}
	return nil
}

// APITALAccountInput adds a company to a list.
type APITALAccountInput struct {
	CompanyID FormValue `json:"company_id"`
	FitReason FormValue `json:"fit_reason"`
	PainHint  FormValue `json:"pain_hint"`
}
