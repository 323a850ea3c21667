package data

import (
	"context"
	"io"
	"time"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/model"
)

// Connector abstracts the link between scout's service and API layers,
// allowing for changes in the service architecture without forcing changes to
// the API.
//
// Methods taking a user apply the visibility rules: hypotheses owned by
// someone else look like they do not exist to non-admins, and admin-only
// operations fail with a 403. Errors are gimlet.ErrorResponse values.
type Connector interface {
	////////
	// Users
	////////
	// Login finds or creates the user with the email, updating its role.
	Login(context.Context, string, string) (*dbmodel.User, error)
	// FindUserByID returns the user with the id.
	FindUserByID(context.Context, int) (*dbmodel.User, error)
	// FindUserByAPIKey returns the user with the email and key.
	FindUserByAPIKey(context.Context, string, string) (*dbmodel.User, error)
	// CreateAPIKey replaces the user's API key.
	CreateAPIKey(context.Context, *dbmodel.User) (*model.APIUserKey, error)

	/////////////
	// Hypotheses
	/////////////
	// FindHypotheses lists the hypotheses the user can see, newest first.
	FindHypotheses(context.Context, *dbmodel.User) ([]model.APIHypothesis, error)
	// CreateHypothesis saves a new hypothesis owned by the user and writes
	// its card.
	CreateHypothesis(context.Context, *dbmodel.User, model.APIHypothesisInput) (*model.APIHypothesisDetail, error)
	// FindHypothesisByID returns the hypothesis with its card name.
	FindHypothesisByID(context.Context, *dbmodel.User, int) (*model.APIHypothesisDetail, error)
	// SetHypothesisDecision records the outcome and refreshes the card.
	SetHypothesisDecision(context.Context, *dbmodel.User, int, model.APIDecisionInput) (*model.APIHypothesisDetail, error)
	// RefreshCard rewrites the hypothesis' card.
	RefreshCard(context.Context, *dbmodel.User, int) (*model.APICard, error)
	// FindCard returns the stored card.
	FindCard(context.Context, *dbmodel.User, int) (*model.APICard, error)
	// FindScript returns the call script, empty when none was written.
	FindScript(context.Context, *dbmodel.User, int) (*model.APIScript, error)
	// SaveScript replaces the call script.
	SaveScript(context.Context, *dbmodel.User, int, string) (*model.APIScript, error)

	/////////////
	// Catalogues
	/////////////
	FindVPPoints(context.Context) ([]model.APIVPPoint, error)
	CreateVPPoint(context.Context, *dbmodel.User, model.APIVPPointInput) (*model.APIVPPoint, error)
	FindICPs(context.Context) ([]model.APIICP, error)
	CreateICP(context.Context, *dbmodel.User, model.APIICPInput) (*model.APIICP, error)
	// FindVerticals returns the verticals with their sub-verticals.
	FindVerticals(context.Context) ([]model.APIVertical, error)
	// CreateVertical also creates the sub-vertical named in the input.
	CreateVertical(context.Context, *dbmodel.User, model.APIVerticalInput) (*model.APIVertical, error)
	// CreateSubVertical adds a sub-vertical and returns the parent. A blank
	// name changes nothing.
	CreateSubVertical(context.Context, *dbmodel.User, int, model.APISubVerticalInput) (*model.APIVertical, error)

	//////
	// TAL
	//////
	// FindTAL returns the hypothesis' list, creating it on first use.
	FindTAL(context.Context, *dbmodel.User, int) (*model.APITAL, error)
	// AddTALAccount adds a company to the list. Unknown or repeated
	// companies are ignored.
	AddTALAccount(context.Context, *dbmodel.User, int, model.APITALAccountInput) (*model.APITAL, error)

	////////
	// Calls
	////////
	// FindCalls returns the calls, newest first, and the accounts of the
	// hypothesis' list.
	FindCalls(context.Context, *dbmodel.User, int) (*model.APICallList, error)
	CreateCall(context.Context, *dbmodel.User, int, model.APICallInput) (*model.APICall, error)

	//////////
	// Metrics
	//////////
	GetMetrics(context.Context, *dbmodel.User, int) (*model.APIMetrics, error)
	FindWeeklyMetrics(context.Context, *dbmodel.User, int) ([]model.APIWeeklyMetric, error)

	////////////
	// Companies
	////////////
	// FindCompanies filters the company list by substring and ICP.
	FindCompanies(context.Context, *dbmodel.User, string, string) (*model.APICompanyList, error)
	// ImportCompanies loads the configured CSV export.
	ImportCompanies(context.Context, *dbmodel.User) (*model.APIImportResult, error)

	////////
	// Files
	////////
	// FindDocuments filters the file index by path substring and kind.
	FindDocuments(context.Context, *dbmodel.User, string, string) (*model.APIDocumentList, error)
	// ReindexDocuments rescans the working root.
	ReindexDocuments(context.Context, *dbmodel.User) (*model.APIReindexResult, error)
	// FindDocumentByID returns the document with a preview when its type
	// has one.
	FindDocumentByID(context.Context, *dbmodel.User, int) (*model.APIDocumentDetail, error)
	// OpenDocument opens the file for download. The caller closes it.
	OpenDocument(context.Context, *dbmodel.User, int) (*DocumentFile, error)

	////////
	// Debug
	////////
	// InsertDebugEvent writes a raw event to the Postgres sink.
	InsertDebugEvent(context.Context, *dbmodel.User, []byte) (*model.APIDebugInsert, error)
}

// DocumentFile is an open indexed file.
type DocumentFile struct {
	Name    string
	ModTime time.Time
	Content io.ReadSeekCloser
}
