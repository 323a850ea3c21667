package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testDBName = "scout_ingest_test"

type ImportSuite struct {
	ctx    context.Context
	cancel context.CancelFunc
	env    scout.Environment
	dir    string
	suite.Suite
}

func TestImportSuite(t *testing.T) {
	suite.Run(t, new(ImportSuite))
}

func (s *ImportSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	env, err := scout.NewEnvironment(s.ctx, testDBName, &scout.Configuration{
		MongoDBURI:   "mongodb://localhost:27017",
		DatabaseName: testDBName,
		NumWorkers:   2,
	})
	s.Require().NoError(err)
	s.env = env
}

func (s *ImportSuite) SetupTest() {
	s.Require().NoError(s.env.GetDB().Drop(s.ctx))
	s.dir = s.T().TempDir()
}

func (s *ImportSuite) TearDownSuite() {
	s.NoError(s.env.GetDB().Drop(s.ctx))
	s.NoError(s.env.Close(s.ctx))
	s.cancel()
}

func (s *ImportSuite) writeCSV(name string, data []byte) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, data, 0644))
	return path
}

const exportHeader = "ICP,Company,Website,Score,Reasoning,Notes,Owner\n"

func (s *ImportSuite) TestMissingFile() {
	_, err := ImportCompanies(s.ctx, s.env, filepath.Join(s.dir, "Companies.csv"), 0)
	s.Require().Error(err)
	s.Equal(ErrSourceNotFound, errors.Cause(err))

	run, err := model.FindOperationRun(s.ctx, s.env, model.OperationCompanyImport)
	s.Require().NoError(err)
	s.Nil(run)
}

func (s *ImportSuite) TestImportAndDeduplicate() {
	path := s.writeCSV("Companies.csv", []byte(exportHeader+
		"CFO, Acme , HTTPS://Acme.com/ ,9,fast,hot lead,ana\n"+
		"CFO,Acme Again,acme.com,5,,,bo\n"+
		",,,,,,\n"+
		"CTO,No Site,,3,,,\n"+
		"CTO,Beta,beta.io,,,,\n"))

	res, err := ImportCompanies(s.ctx, s.env, path, 0)
	s.Require().NoError(err)
	s.Equal(5, res.TotalRows)
	s.Equal(3, res.Inserted)
	s.Equal(2, res.Skipped)
	s.Equal(path, res.Path)

	companies, err := model.FindCompanies(s.ctx, s.env, model.CompanyQuery{})
	s.Require().NoError(err)
	s.Require().Len(companies, 3)

	byName := map[string]model.Company{}
	for _, c := range companies {
		byName[c.Name] = c
	}
	acme, ok := byName["Acme"]
	s.Require().True(ok)
	s.Require().NotNil(acme.Website)
	s.Equal("acme.com", *acme.Website)
	s.Equal("CFO", acme.ICP)
	s.Equal("9", acme.Score)
	s.Equal("hot lead", acme.Notes)
	s.Equal("ana", acme.Raw["Owner"])
	s.Equal(" HTTPS://Acme.com/ ", acme.Raw["Website"])
	s.Nil(byName["No Site"].Website)

	// a second run only skips
	res, err = ImportCompanies(s.ctx, s.env, path, 0)
	s.Require().NoError(err)
	s.Equal(5, res.TotalRows)
	s.Equal(1, res.Inserted, "the row without a website has no dedup key")
	s.Equal(4, res.Skipped)

	run, err := model.FindOperationRun(s.ctx, s.env, model.OperationCompanyImport)
	s.Require().NoError(err)
	s.Require().NotNil(run)
	s.Require().NotNil(run.Import)
	s.Equal(res, *run.Import)
}

func (s *ImportSuite) TestLimit() {
	path := s.writeCSV("Companies.csv", []byte(exportHeader+
		"a,One,one.com,,,,\n"+
		"a,Two,two.com,,,,\n"+
		"a,Three,three.com,,,,\n"))

	res, err := ImportCompaniesCSV(s.ctx, s.env, path, 2)
	s.Require().NoError(err)
	s.Equal(3, res.TotalRows)
	s.Equal(2, res.Inserted)
	s.Equal(0, res.Skipped)

	count, err := model.CountCompanies(s.ctx, s.env)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *ImportSuite) TestLimitCoveringWholeFile() {
	path := s.writeCSV("Companies.csv", []byte(exportHeader+
		"a,One,one.com,,,,\n"+
		"a,Two,two.com,,,,\n"))

	res, err := ImportCompaniesCSV(s.ctx, s.env, path, 2)
	s.Require().NoError(err)
	s.Equal(2, res.TotalRows)
	s.Equal(2, res.Inserted)
}

func (s *ImportSuite) TestBatches() {
	var b strings.Builder
	b.WriteString(exportHeader)
	for i := 0; i < companyBatchSize+5; i++ {
		fmt.Fprintf(&b, "x,Company %d,site%d.com,,,,\n", i, i)
	}
	path := s.writeCSV("Companies.csv", []byte(b.String()))

	res, err := ImportCompaniesCSV(s.ctx, s.env, path, 0)
	s.Require().NoError(err)
	s.Equal(companyBatchSize+5, res.TotalRows)
	s.Equal(companyBatchSize+5, res.Inserted)
	s.Zero(res.Skipped)

	count, err := model.CountCompanies(s.ctx, s.env)
	s.Require().NoError(err)
	s.Equal(res.Inserted, count)
}

func (s *ImportSuite) TestByteOrderMark() {
	data := append([]byte{0xEF, 0xBB, 0xBF}, exportHeader+"a,Bom,bom.com,,,,\n"...)
	path := s.writeCSV("Companies.csv", data)

	res, err := ImportCompaniesCSV(s.ctx, s.env, path, 0)
	s.Require().NoError(err)
	s.Equal(1, res.Inserted)

	companies, err := model.FindCompanies(s.ctx, s.env, model.CompanyQuery{})
	s.Require().NoError(err)
	s.Require().Len(companies, 1)
	s.Equal("a", companies[0].ICP)
}

func (s *ImportSuite) TestWindows1251() {
	// "Рога" in Windows-1251
	name := []byte{0xD0, 0xEE, 0xE3, 0xE0}
	data := append([]byte(exportHeader+"a,"), name...)
	data = append(data, ",roga.ru,,,,\n"...)
	path := s.writeCSV("Companies.csv", data)

	res, err := ImportCompaniesCSV(s.ctx, s.env, path, 0)
	s.Require().NoError(err)
	s.Equal(1, res.Inserted)

	companies, err := model.FindCompanies(s.ctx, s.env, model.CompanyQuery{})
	s.Require().NoError(err)
	s.Require().Len(companies, 1)
	s.Equal("Рога", companies[0].Name)
}

func TestRowMap(t *testing.T) {
	row := rowMap([]string{"ICP", "Company", "Website"}, []string{"a", "b"})
	require.Len(t, row, 3)
	assert.Equal(t, "a", row["ICP"])
	assert.Equal(t, "b", row["Company"])
	assert.Equal(t, "", row["Website"])

	row = rowMap([]string{"ICP"}, []string{"a", "extra"})
	assert.Equal(t, map[string]string{"ICP": "a"}, row)
}
